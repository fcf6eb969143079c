package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/porkyfarm/porcpro/internal/repository/memory"
	"github.com/porkyfarm/porcpro/internal/server/handlers"
	"github.com/porkyfarm/porcpro/internal/server/middleware"
	"github.com/porkyfarm/porcpro/internal/server/router"
	"github.com/porkyfarm/porcpro/internal/service/chat"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/export"
	"github.com/porkyfarm/porcpro/internal/service/oauth"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/clients/anthropic"
	"github.com/porkyfarm/porcpro/pkg/clients/email"
)

const (
	jwtSecret     = "provider-secret"
	internalToken = "internal-secret"
)

var clock = time.Date(2025, time.March, 10, 8, 30, 0, 0, time.UTC)

type fakeAssistant struct{ last anthropic.ChatRequest }

func (f *fakeAssistant) Chat(_ context.Context, req anthropic.ChatRequest) (anthropic.Reply, error) {
	f.last = req
	return anthropic.Reply{Text: "Give her electrolytes."}, nil
}

type captureSender struct{ sent []email.Message }

func (c *captureSender) Send(_ context.Context, msg email.Message) (string, error) {
	c.sent = append(c.sent, msg)
	return fmt.Sprintf("em_%d", len(c.sent)), nil
}

type memorySheets struct{ rows map[string][][]interface{} }

func (m *memorySheets) ReplaceRange(_ context.Context, r string, rows [][]interface{}) error {
	m.rows[r] = rows
	return nil
}

type env struct {
	engine    *gin.Engine
	assistant *fakeAssistant
	mail      *captureSender
	sheets    *memorySheets
}

func newEnv(t *testing.T) *env {
	t.Helper()
	seq := 0
	manager := store.NewManager(memory.NewRepository(), nil,
		store.WithClock(func() time.Time { return clock }),
		store.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		store.WithoutDemoSeed())
	dash := dashboard.NewService(nil, 0)

	e := &env{
		assistant: &fakeAssistant{},
		mail:      &captureSender{},
		sheets:    &memorySheets{rows: map[string][][]interface{}{}},
	}
	h := handlers.NewHandler(handlers.Deps{
		Store:     manager,
		Dashboard: dash,
		Chat:      chat.NewService(e.assistant, dash, chat.Options{PerWindow: 2, Window: time.Minute}, nil),
		Export:    export.NewService(e.sheets, "Feeding!A:F", nil),
		Mailer:    email.NewMailer(e.mail),
		OAuth: oauth.NewService("code-secret", []oauth.Client{{
			ID:           "vetapp",
			Name:         "Vet App",
			RedirectURIs: []string{"https://vet.test/cb"},
			Scopes:       []string{"herd:read", "health:read"},
		}}, nil),
	})
	e.engine = router.New(h, router.Options{
		Mode:          gin.TestMode,
		JWTSecret:     jwtSecret,
		InternalToken: internalToken,
		RateLimiter:   middleware.NewIPRateLimiter(middleware.RateLimiterConfig{RequestsPerSecond: 1000, BurstSize: 1000}),
	}, nil)
	return e
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()
	s, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

type reply struct {
	Data    json.RawMessage `json:"data"`
	Durable *bool           `json:"durable"`
	Error   *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (e *env) do(t *testing.T, method, path, auth string, body any) (*httptest.ResponseRecorder, reply) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var r reply
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r), w.Body.String())
	}
	return w, r
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

type animalJSON struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	HealthStatus string `json:"health_status"`
	AgeLabel     string `json:"age_label"`
	HealthScore  int    `json:"health_score"`
}

func (e *env) createSow(t *testing.T, auth, name string) animalJSON {
	t.Helper()
	w, r := e.do(t, http.MethodPost, "/api/v1/animals", auth, map[string]any{
		"name":       name,
		"category":   "breeding_female",
		"breed":      "Large White",
		"birth_date": "2023-01-10",
		"weight":     180,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, r.Durable)
	assert.True(t, *r.Durable)
	return decode[animalJSON](t, r.Data)
}

func TestHealthz(t *testing.T) {
	w, _ := newEnv(t).do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAnimalLifecycle(t *testing.T) {
	e := newEnv(t)
	sow := e.createSow(t, "", "Rosa")
	assert.Equal(t, "active", sow.Status)
	assert.Equal(t, "2 years 2 months", sow.AgeLabel)
	assert.Equal(t, 95, sow.HealthScore)

	w, r := e.do(t, http.MethodPatch, "/api/v1/animals/"+sow.ID, "", map[string]any{"name": "Rosa II", "weight": 190})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Rosa II", decode[animalJSON](t, r.Data).Name)

	w, r = e.do(t, http.MethodGet, "/api/v1/animals?status=active", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]animalJSON](t, r.Data), 1)

	w, _ = e.do(t, http.MethodPost, "/api/v1/animals/"+sow.ID+"/sell", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, r = e.do(t, http.MethodPost, "/api/v1/animals/"+sow.ID+"/sell", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "sold", decode[animalJSON](t, r.Data).Status)

	w, r = e.do(t, http.MethodPost, "/api/v1/animals/"+sow.ID+"/deceased", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", r.Error.Code)

	w, _ = e.do(t, http.MethodDelete, "/api/v1/animals/"+sow.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = e.do(t, http.MethodDelete, "/api/v1/animals/"+sow.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestValidationErrorsUseJSONNames(t *testing.T) {
	e := newEnv(t)
	w, r := e.do(t, http.MethodPost, "/api/v1/animals", "", map[string]any{"name": "X", "category": "goat"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", r.Error.Code)
	assert.Equal(t, "oneof", r.Error.Details["category"])

	req := httptest.NewRequest(http.MethodPost, "/api/v1/animals", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateAnimalRejectsEventDrivenStatus(t *testing.T) {
	e := newEnv(t)
	for _, status := range []string{"sick", "sold", "deceased"} {
		w, r := e.do(t, http.MethodPost, "/api/v1/animals", "", map[string]any{
			"name":     "Rosa",
			"category": "breeding_female",
			"status":   status,
		})
		require.Equal(t, http.StatusBadRequest, w.Code, status)
		assert.Equal(t, "oneof", r.Error.Details["status"])
	}

	w, r := e.do(t, http.MethodPost, "/api/v1/animals", "", map[string]any{
		"name":     "Rosa",
		"category": "breeding_female",
		"status":   "pregnant",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "pregnant", decode[animalJSON](t, r.Data).Status)
}

func TestDeletingOpenCaseReleasesAnimal(t *testing.T) {
	e := newEnv(t)
	sow := e.createSow(t, "", "Bella")

	w, r := e.do(t, http.MethodPost, "/api/v1/health-cases", "", map[string]any{
		"animal_id": sow.ID,
		"issue":     "Fever",
		"priority":  "high",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[struct {
		ID string `json:"id"`
	}](t, r.Data)

	w, _ = e.do(t, http.MethodDelete, "/api/v1/health-cases/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	_, r = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	a := decode[animalJSON](t, r.Data)
	assert.Equal(t, "active", a.Status)
	assert.Equal(t, "good", a.HealthStatus)
}

func TestHealthCaseCascade(t *testing.T) {
	e := newEnv(t)
	sow := e.createSow(t, "", "Bella")

	w, r := e.do(t, http.MethodPost, "/api/v1/health-cases", "", map[string]any{
		"animal_id": sow.ID,
		"issue":     "Fever",
		"priority":  "critical",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	caseID := decode[struct {
		ID         string `json:"id"`
		AnimalName string `json:"animal_name"`
	}](t, r.Data)
	assert.Equal(t, "Bella", caseID.AnimalName)

	_, r = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	a := decode[animalJSON](t, r.Data)
	assert.Equal(t, "sick", a.Status)
	assert.Equal(t, "bad", a.HealthStatus)

	w, _ = e.do(t, http.MethodPost, "/api/v1/health-cases/"+caseID.ID+"/resolve", "", map[string]any{"treatment": "Antibiotics"})
	require.Equal(t, http.StatusOK, w.Code)

	_, r = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	a = decode[animalJSON](t, r.Data)
	assert.Equal(t, "active", a.Status)
	assert.Equal(t, "good", a.HealthStatus)

	w, _ = e.do(t, http.MethodPatch, "/api/v1/health-cases/"+caseID.ID, "", map[string]any{"status": "open"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/v1/health-cases", "", map[string]any{
		"animal_id": "missing",
		"issue":     "Cough",
		"priority":  "low",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGestationFlow(t *testing.T) {
	e := newEnv(t)
	sow := e.createSow(t, "", "Daisy")

	w, r := e.do(t, http.MethodPost, "/api/v1/gestations", "", map[string]any{
		"sow_id":        sow.ID,
		"breeding_date": "2025-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	g := decode[struct {
		ID              string    `json:"id"`
		ExpectedDueDate time.Time `json:"expected_due_date"`
		Progress        struct {
			Day       int    `json:"day"`
			Remaining int    `json:"remaining"`
			Band      string `json:"band"`
		} `json:"progress"`
	}](t, r.Data)
	assert.Equal(t, time.Date(2025, 4, 25, 0, 0, 0, 0, time.UTC), g.ExpectedDueDate)

	_, r = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	assert.Equal(t, "pregnant", decode[animalJSON](t, r.Data).Status)

	w, _ = e.do(t, http.MethodPost, "/api/v1/gestations/"+g.ID+"/complete", "", map[string]any{
		"piglet_count":     10,
		"piglets_survived": 12,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodPost, "/api/v1/gestations/"+g.ID+"/complete", "", map[string]any{
		"piglet_count":     12,
		"piglets_survived": 11,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, r = e.do(t, http.MethodGet, "/api/v1/animals/"+sow.ID, "", nil)
	assert.Equal(t, "nursing", decode[animalJSON](t, r.Data).Status)

	w, _ = e.do(t, http.MethodPost, "/api/v1/gestations/"+g.ID+"/fail", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestIdentitiesAreIsolated(t *testing.T) {
	e := newEnv(t)
	alice := tokenFor(t, "alice")
	e.createSow(t, alice, "Alice's sow")

	_, r := e.do(t, http.MethodGet, "/api/v1/animals", alice, nil)
	assert.Len(t, decode[[]animalJSON](t, r.Data), 1)

	_, r = e.do(t, http.MethodGet, "/api/v1/animals", "", nil)
	assert.Empty(t, decode[[]animalJSON](t, r.Data))

	w, _ := e.do(t, http.MethodGet, "/api/v1/animals", "Bearer forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDashboardAndActivities(t *testing.T) {
	e := newEnv(t)
	e.createSow(t, "", "Rosa")
	w, _ := e.do(t, http.MethodPost, "/api/v1/feed-stocks", "", map[string]any{
		"name": "Starter", "current_qty": 5, "max_qty": 100, "unit": "kg",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, r := e.do(t, http.MethodGet, "/api/v1/dashboard", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sum := decode[dashboard.Summary](t, r.Data)
	assert.Equal(t, 1, sum.Stats.TotalAnimals)
	require.Len(t, sum.Alerts, 1)
	assert.Equal(t, dashboard.AlertFeedStock, sum.Alerts[0].Kind)

	_, r = e.do(t, http.MethodGet, "/api/v1/activities?limit=1", "", nil)
	acts := decode[[]struct {
		Type     string `json:"type"`
		EntityID string `json:"entity_id"`
	}](t, r.Data)
	require.Len(t, acts, 1)
	assert.Equal(t, "feeding", acts[0].Type)
}

func TestFeedLedgersAndExport(t *testing.T) {
	e := newEnv(t)
	for _, d := range []string{"2025-03-08", "2025-03-09"} {
		w, _ := e.do(t, http.MethodPost, "/api/v1/feeding-records", "", map[string]any{
			"date": d, "feed_type": "Grower", "quantity_kg": 40, "cost": 12000,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w, _ := e.do(t, http.MethodPost, "/api/v1/feeding-records", "", map[string]any{"date": "2025-03-09", "feed_type": "Grower"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, r := e.do(t, http.MethodGet, "/api/v1/feeding-records", "", nil)
	records := decode[[]struct {
		Date time.Time `json:"date"`
	}](t, r.Data)
	require.Len(t, records, 2)
	assert.Equal(t, 9, records[0].Date.Day())

	w, r = e.do(t, http.MethodPost, "/api/v1/exports/sheets", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.Result{Range: "demo_Feeding!A:F", Rows: 2}, decode[export.Result](t, r.Data))
	assert.Len(t, e.sheets.rows["demo_Feeding!A:F"], 3)
}

func TestChatRateLimit(t *testing.T) {
	e := newEnv(t)
	body := map[string]any{
		"messages":        []map[string]string{{"role": "user", "content": "My sow is not eating"}},
		"include_context": true,
	}

	w, r := e.do(t, http.MethodPost, "/api/v1/chat", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Give her electrolytes.", decode[map[string]string](t, r.Data)["reply"])
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, e.assistant.last.System, "Current farm situation:")

	w, _ = e.do(t, http.MethodPost, "/api/v1/chat", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	w, r = e.do(t, http.MethodPost, "/api/v1/chat", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "RATE_LIMITED", r.Error.Code)
	assert.Contains(t, r.Error.Message, "Please try again in")

	w, _ = e.do(t, http.MethodPost, "/api/v1/chat", "", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInternalEmails(t *testing.T) {
	e := newEnv(t)
	payload := map[string]any{"to": "jo@farm.test", "name": "Jo"}

	w, _ := e.do(t, http.MethodPost, "/internal/emails/welcome", "", payload)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, r := e.do(t, http.MethodPost, "/internal/emails/welcome", "Bearer "+internalToken, payload)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "em_1", decode[map[string]string](t, r.Data)["id"])
	require.Len(t, e.mail.sent, 1)
	assert.Equal(t, "Welcome to PorcPro", e.mail.sent[0].Subject)

	w, _ = e.do(t, http.MethodPost, "/internal/emails/password-reset", "Bearer "+internalToken, map[string]any{
		"to": "not-an-email", "link": "https://app.test/reset",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOAuthConsent(t *testing.T) {
	e := newEnv(t)
	q := url.Values{
		"client_id":     {"vetapp"},
		"redirect_uri":  {"https://vet.test/cb"},
		"response_type": {"code"},
		"scope":         {"herd:read"},
		"state":         {"xyz"},
	}
	path := "/api/v1/oauth/authorize?" + q.Encode()

	w, r := e.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Vet App", decode[map[string]any](t, r.Data)["client_name"])

	consent := "/api/v1/oauth/consent?" + q.Encode()
	w, _ = e.do(t, http.MethodPost, consent, "", map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, r = e.do(t, http.MethodPost, consent, tokenFor(t, "alice"), map[string]string{"decision": "approve"})
	require.Equal(t, http.StatusOK, w.Code)
	loc, err := url.Parse(decode[map[string]string](t, r.Data)["redirect_to"])
	require.NoError(t, err)
	assert.Equal(t, "xyz", loc.Query().Get("state"))
	code := loc.Query().Get("code")
	require.NotEmpty(t, code)

	w, r = e.do(t, http.MethodPost, "/internal/oauth/introspect", "Bearer "+internalToken, map[string]string{"code": code, "client_id": "vetapp"})
	require.Equal(t, http.StatusOK, w.Code)
	claims := decode[map[string]any](t, r.Data)
	assert.Equal(t, true, claims["active"])
	assert.Equal(t, "alice", claims["sub"])

	w, r = e.do(t, http.MethodPost, consent, "", map[string]string{"decision": "deny"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]string](t, r.Data)["redirect_to"], "error=access_denied")

	bad := url.Values{"client_id": {"nope"}, "redirect_uri": {"https://x"}, "response_type": {"code"}}
	w, _ = e.do(t, http.MethodGet, "/api/v1/oauth/authorize?"+bad.Encode(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
