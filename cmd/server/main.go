package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/porkyfarm/porcpro/internal/config"
	"github.com/porkyfarm/porcpro/internal/repository/backend"
	"github.com/porkyfarm/porcpro/internal/repository/sheets"
	"github.com/porkyfarm/porcpro/internal/scheduler"
	"github.com/porkyfarm/porcpro/internal/server/handlers"
	"github.com/porkyfarm/porcpro/internal/server/middleware"
	"github.com/porkyfarm/porcpro/internal/server/router"
	"github.com/porkyfarm/porcpro/internal/service/chat"
	commandsvc "github.com/porkyfarm/porcpro/internal/service/commands"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/export"
	"github.com/porkyfarm/porcpro/internal/service/oauth"
	"github.com/porkyfarm/porcpro/internal/service/reporting"
	whatsappsvc "github.com/porkyfarm/porcpro/internal/service/whatsapp"
	"github.com/porkyfarm/porcpro/internal/store"
	"github.com/porkyfarm/porcpro/pkg/clients/anthropic"
	"github.com/porkyfarm/porcpro/pkg/clients/email"
	"github.com/porkyfarm/porcpro/pkg/clients/whatsapp"
	"github.com/porkyfarm/porcpro/pkg/logger"
)

const maintenanceInterval = time.Minute

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := backend.Open(ctx, cfg)
	if err != nil {
		baseLogger.Fatal("failed to init document repository", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	baseLogger.Info("document repository ready", zap.String("driver", cfg.Storage.Driver))

	manager := store.NewManager(repo, baseLogger.Named("store"))
	dash := dashboard.NewService(baseLogger.Named("svc.dashboard"), cfg.Alerts.MaxAlerts)
	manager.OnEvict(dash.Forget)

	var chatSvc *chat.Service
	if cfg.AI.AnthropicKey != "" {
		aiClient := anthropic.NewClient(anthropic.Config{APIKey: cfg.AI.AnthropicKey, Model: cfg.AI.Model})
		chatSvc = chat.NewService(aiClient, dash, chat.Options{
			PerWindow:  cfg.AI.ChatPerMinute,
			Window:     time.Minute,
			DailyLimit: cfg.AI.ChatDailyLimit,
		}, baseLogger.Named("svc.chat"))
		baseLogger.Info("anthropic ai client enabled")
	} else {
		baseLogger.Warn("anthropic api key missing, assistant disabled")
	}

	var (
		mailer      *email.Mailer
		schedMailer scheduler.Mailer
	)
	if cfg.Email.Enabled() {
		mailer = email.NewMailer(email.NewClient(email.Config{
			APIKey:     cfg.Email.ResendKey,
			From:       cfg.Email.From,
			MaxRetries: cfg.Email.MaxRetries,
		}, baseLogger.Named("client.email")))
		schedMailer = mailer
	} else {
		baseLogger.Warn("resend api key missing, email disabled")
	}

	reportingSvc := reporting.NewService(dash, baseLogger.Named("svc.reporting"))

	var (
		messenger whatsapp.Client
		webhook   *handlers.WebhookHandler
	)
	if cfg.WhatsApp.Enabled() {
		messenger = whatsapp.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		dispatcher := commandsvc.NewService(manager, dash, reportingSvc, baseLogger.Named("svc.commands"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, messenger, dispatcher, cfg.Reporting.Recipients, baseLogger.Named("svc.whatsapp"))
		webhook = handlers.NewWebhookHandler(messagingSvc, cfg.WhatsApp.AppSecret, baseLogger.Named("handlers.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, bot and digests by message disabled")
	}

	var exporter *export.Service
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		exporter = export.NewService(sheetsRepo, cfg.Sheets.FeedingRange, baseLogger.Named("svc.export"))
	}

	var consent *oauth.Service
	if len(cfg.OAuth.Clients) > 0 {
		clients := make([]oauth.Client, 0, len(cfg.OAuth.Clients))
		for _, c := range cfg.OAuth.Clients {
			clients = append(clients, oauth.Client{ID: c.ID, Name: c.Name, RedirectURIs: c.RedirectURIs, Scopes: c.Scopes})
		}
		consent = oauth.NewService(cfg.OAuth.CodeSecret, clients, baseLogger.Named("svc.oauth"))
	}

	h := handlers.NewHandler(handlers.Deps{
		Store:     manager,
		Dashboard: dash,
		Chat:      chatSvc,
		Export:    exporter,
		Mailer:    mailer,
		OAuth:     consent,
		Logger:    baseLogger.Named("handlers"),
	})

	limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		BurstSize:         cfg.RateLimit.Burst,
	})
	go limiter.Run(ctx, maintenanceInterval)

	engine := router.New(h, router.Options{
		Mode:          cfg.Server.Mode,
		JWTSecret:     cfg.Auth.JWTSecret,
		InternalToken: cfg.Auth.InternalToken,
		RateLimiter:   limiter,
		WhatsApp:      webhook,
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Reporting, scheduler.Deps{
		Store:     manager,
		Reporting: reportingSvc,
		Mailer:    schedMailer,
		Messenger: messenger,
		Exporter:  exporter,
	}, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	go maintain(ctx, manager, baseLogger.Named("maintenance"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop()
	if err := manager.CloseAll(shutdownCtx); err != nil {
		baseLogger.Error("unsaved farm changes at shutdown", zap.Error(err))
	}
	if err := repo.Close(shutdownCtx); err != nil {
		baseLogger.Error("failed to close document repository", zap.Error(err))
	}
}

// maintain retries dirty documents until ctx ends.
func maintain(ctx context.Context, manager *store.Manager, log *zap.Logger) {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := manager.FlushDirty(ctx); n > 0 {
				log.Warn("documents still unsaved", zap.Int("count", n))
			}
		}
	}
}
