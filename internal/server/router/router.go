package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/server/handlers"
	"github.com/porkyfarm/porcpro/internal/server/middleware"
)

// Options configures the engine. WhatsApp is optional.
type Options struct {
	Mode          string
	JWTSecret     string
	InternalToken string
	RateLimiter   *middleware.IPRateLimiter
	WhatsApp      *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h *handlers.Handler, opts Options, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewIPRateLimiter(middleware.DefaultRateLimiterConfig())
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Metrics())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1",
		middleware.Identity(opts.JWTSecret, logger.Named("auth")),
		middleware.Logger(logger.Named("http")),
		middleware.RateLimit(opts.RateLimiter),
	)

	animals := api.Group("/animals")
	animals.GET("", h.ListAnimals)
	animals.POST("", h.CreateAnimal)
	animals.GET("/:id", h.GetAnimal)
	animals.PATCH("/:id", h.UpdateAnimal)
	animals.DELETE("/:id", h.DeleteAnimal)
	animals.POST("/:id/sell", h.SellAnimal)
	animals.POST("/:id/deceased", h.MarkAnimalDeceased)

	cases := api.Group("/health-cases")
	cases.GET("", h.ListHealthCases)
	cases.POST("", h.CreateHealthCase)
	cases.PATCH("/:id", h.UpdateHealthCase)
	cases.DELETE("/:id", h.DeleteHealthCase)
	cases.POST("/:id/treatment", h.StartTreatment)
	cases.POST("/:id/resolve", h.ResolveHealthCase)

	gestations := api.Group("/gestations")
	gestations.GET("", h.ListGestations)
	gestations.POST("", h.CreateGestation)
	gestations.PATCH("/:id", h.UpdateGestation)
	gestations.DELETE("/:id", h.DeleteGestation)
	gestations.POST("/:id/complete", h.CompleteGestation)
	gestations.POST("/:id/fail", h.FailGestation)

	vaccinations := api.Group("/vaccinations")
	vaccinations.GET("", h.ListVaccinations)
	vaccinations.POST("", h.CreateVaccination)
	vaccinations.PATCH("/:id", h.UpdateVaccination)
	vaccinations.DELETE("/:id", h.DeleteVaccination)
	vaccinations.POST("/:id/complete", h.CompleteVaccination)

	api.GET("/feeding-records", h.ListFeedingRecords)
	api.POST("/feeding-records", h.CreateFeedingRecord)
	api.DELETE("/feeding-records/:id", h.DeleteFeedingRecord)

	api.GET("/feed-stocks", h.ListFeedStocks)
	api.POST("/feed-stocks", h.CreateFeedStock)
	api.PATCH("/feed-stocks/:id", h.UpdateFeedStock)
	api.DELETE("/feed-stocks/:id", h.DeleteFeedStock)

	api.GET("/feed-productions", h.ListFeedProductions)
	api.POST("/feed-productions", h.CreateFeedProduction)
	api.DELETE("/feed-productions/:id", h.DeleteFeedProduction)

	api.GET("/daily-consumptions", h.ListDailyConsumptions)
	api.POST("/daily-consumptions", h.CreateDailyConsumption)
	api.DELETE("/daily-consumptions/:id", h.DeleteDailyConsumption)

	api.GET("/dashboard", h.Dashboard)
	api.GET("/activities", h.Activities)
	api.POST("/chat", h.Chat)
	api.POST("/exports/sheets", h.ExportSheets)

	api.GET("/oauth/authorize", h.Authorize)
	api.POST("/oauth/consent", h.Consent)

	internal := r.Group("/internal",
		middleware.InternalToken(opts.InternalToken, logger.Named("internal")),
		middleware.Logger(logger.Named("http")),
	)
	internal.POST("/emails/welcome", h.SendWelcomeEmail)
	internal.POST("/emails/password-reset", h.SendPasswordResetEmail)
	internal.POST("/oauth/introspect", h.IntrospectCode)

	if opts.WhatsApp != nil {
		webhooks := r.Group("/webhooks", middleware.Logger(logger.Named("http")))
		webhooks.GET("/whatsapp", opts.WhatsApp.Verify)
		webhooks.POST("/whatsapp", opts.WhatsApp.Receive)
		internal.POST("/whatsapp/messages", opts.WhatsApp.SendMessage)
	}

	logger.Info("router initialized")
	return r
}
