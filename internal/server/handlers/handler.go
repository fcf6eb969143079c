// Package handlers exposes the farm store, dashboard, assistant and consent
// services over HTTP.
package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/server/middleware"
	"github.com/porkyfarm/porcpro/internal/server/response"
	"github.com/porkyfarm/porcpro/internal/service/chat"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/export"
	"github.com/porkyfarm/porcpro/internal/service/oauth"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/clients/email"
)

const dateLayout = "2006-01-02"

// Deps are the services served by the handlers. Chat, Export, Mailer and
// OAuth are optional; their routes answer 503 when nil.
type Deps struct {
	Store     *store.Manager
	Dashboard *dashboard.Service
	Chat      *chat.Service
	Export    *export.Service
	Mailer    *email.Mailer
	OAuth     *oauth.Service
	Logger    *zap.Logger
}

// Handler groups the HTTP endpoints.
type Handler struct {
	store     *store.Manager
	dashboard *dashboard.Service
	chat      *chat.Service
	export    *export.Service
	mailer    *email.Mailer
	oauth     *oauth.Service
	logger    *zap.Logger
}

var registerTagNames sync.Once

// NewHandler builds the HTTP handler set.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Dashboard == nil {
		d.Dashboard = dashboard.NewService(d.Logger, 0)
	}
	registerTagNames.Do(useJSONFieldNames)
	return &Handler{
		store:     d.Store,
		dashboard: d.Dashboard,
		chat:      d.Chat,
		export:    d.Export,
		mailer:    d.Mailer,
		oauth:     d.OAuth,
		logger:    d.Logger,
	}
}

// useJSONFieldNames makes validation errors report json names instead of Go field names.
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
}

// open resolves the document of the caller.
func (h *Handler) open(c *gin.Context) (*store.Handle, bool) {
	handle, err := h.store.Open(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("open farm document failed", zap.String("user_id", middleware.UserID(c)), zap.Error(err))
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "Farm data is temporarily unavailable")
		return nil, false
	}
	return handle, true
}

func (h *Handler) today() time.Time {
	return h.store.Now()
}

// bind decodes and validates the JSON body into dst, writing a 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "Validation failed", details)
			return false
		}
		response.Error(c, http.StatusBadRequest, response.CodeInvalidRequest, "Malformed JSON body")
		return false
	}
	return true
}

// fail maps store errors to HTTP answers.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrAnimalNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		response.Error(c, http.StatusConflict, response.CodeConflict, "The farm was changed elsewhere. Reload and try again.")
	case errors.Is(err, store.ErrTerminalStatus),
		errors.Is(err, store.ErrCaseResolved),
		errors.Is(err, store.ErrGestationClosed):
		response.Error(c, http.StatusConflict, response.CodeConflict, err.Error())
	case errors.Is(err, store.ErrInvalidRecord):
		response.Error(c, http.StatusBadRequest, response.CodeValidation, err.Error())
	case errors.Is(err, store.ErrHandleClosed):
		response.Error(c, http.StatusServiceUnavailable, response.CodeUnavailable, "Farm data is being reloaded. Try again.")
	default:
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.CodeInternal, "Internal server error")
	}
}

// written answers a mutation, reporting whether it reached the backend.
func (h *Handler) written(c *gin.Context, status int, data any, res store.SaveResult) {
	if res.Err != nil {
		h.logger.Warn("change kept in memory only",
			zap.String("path", c.FullPath()),
			zap.String("user_id", middleware.UserID(c)),
			zap.Error(res.Err))
	}
	response.Write(c, status, data, res.Durable)
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}

func dateOrZero(s string) time.Time {
	if t := parseDate(s); t != nil {
		return *t
	}
	return time.Time{}
}

func (h *Handler) ok(c *gin.Context, data any) {
	response.Success(c, http.StatusOK, data)
}
