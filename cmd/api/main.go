package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/civicdesk/civic-portal/internal/api/router"
	"github.com/civicdesk/civic-portal/internal/app/bootstrap"
	"github.com/civicdesk/civic-portal/internal/channels/whatsapp"
	appconfig "github.com/civicdesk/civic-portal/internal/config"
	"github.com/civicdesk/civic-portal/internal/dedupe"
	"github.com/civicdesk/civic-portal/internal/dispatch"
	"github.com/civicdesk/civic-portal/internal/flow"
	"github.com/civicdesk/civic-portal/internal/http/handlers"
	"github.com/civicdesk/civic-portal/internal/i18n"
	"github.com/civicdesk/civic-portal/internal/notify"
	"github.com/civicdesk/civic-portal/internal/observability/metrics"
	"github.com/civicdesk/civic-portal/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting civic-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Backing stores, with in-memory fallbacks for local development.
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	pool := bootstrap.BuildPgxPool(ctx, cfg, logger)
	if pool != nil {
		defer pool.Close()
	}

	sessions := bootstrap.BuildSessionStore(cfg, redisClient, logger)
	guard := bootstrap.BuildDedupeGuard(cfg, pool, logger)
	allocator := bootstrap.BuildRefAllocator(pool, logger)
	repo := bootstrap.BuildCaseRepository(pool, logger)

	if store, ok := guard.(*dedupe.Store); ok {
		store.StartSweeper(ctx, cfg.DedupeSweepEvery, logger.Component("dedupe"))
	}

	resolver, err := i18n.NewResolver()
	if err != nil {
		logger.Error("failed to load message catalogs", "error", err)
		os.Exit(1)
	}

	departments, err := repo.ListDepartments(ctx, true)
	if err != nil {
		logger.Error("failed to load departments", "error", err)
		os.Exit(1)
	}

	client := whatsapp.NewClient(cfg.WhatsAppAccessToken, cfg.WhatsAppPhoneNumberID)
	if cfg.WhatsAppAPIBase != "" {
		client.SetGraphAPIBase(cfg.WhatsAppAPIBase)
	}

	emailSender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger.Component("notify"))
	var staffNotifier dispatch.Notifier
	if emailSender != nil {
		staffNotifier = notify.NewService(emailSender, cfg.StaffAlertEmails, logger.Component("notify"))
	}

	intakeMetrics := metrics.NewIntakeMetrics(prometheus.DefaultRegisterer)

	orchestrator := dispatch.NewOrchestrator(dispatch.Options{
		Sessions:  sessions,
		Guard:     guard,
		Refs:      allocator,
		Repo:      repo,
		Messenger: client,
		Notifier:  staffNotifier,
		FlowDeps: flow.Deps{
			Messages:    resolver,
			Departments: departments,
			Capabilities: flow.Capabilities{
				Grievance:   cfg.EnableGrievance,
				Appointment: cfg.EnableAppointment,
				Tracking:    cfg.EnableTracking,
			},
			TimeSlots: cfg.AppointmentSlots,
		},
		Metrics:         intakeMetrics,
		Logger:          logger.Component("dispatch"),
		LaneBuffer:      cfg.DispatchLaneBuffer,
		AppointmentDays: cfg.AppointmentDays,
	})

	webhookLogger := logger.Component("webhook")
	webhook := whatsapp.NewWebhookHandler(cfg.WhatsAppVerifyToken, cfg.WhatsAppAppSecret,
		func(msg whatsapp.ParsedInboundMessage) error {
			ev, ok := whatsapp.ToFlowEvent(msg)
			if !ok {
				webhookLogger.Info("unsupported message type dropped",
					"type", msg.Type, "message_id", msg.MessageID)
				return nil
			}
			if err := orchestrator.Enqueue(context.Background(), ev); err != nil {
				webhookLogger.Warn("event not admitted, requesting redelivery",
					"error", err, "message_id", msg.MessageID)
				return err
			}
			return nil
		})

	r := router.New(&router.Config{
		Logger:             logger,
		Webhook:            webhook,
		AdminCases:         handlers.NewAdminCasesHandler(repo, logger.Component("admin")),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := orchestrator.Shutdown(shutdownCtx); err != nil {
		logger.Error("dispatch lanes did not drain", "error", err)
	}

	logger.Info("server stopped")
}
