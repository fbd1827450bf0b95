package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/weshare-leasing/internal/auth"
	"github.com/nurpe/weshare-leasing/internal/config"
	"github.com/nurpe/weshare-leasing/internal/db"
	"github.com/nurpe/weshare-leasing/internal/excel"
	httphandler "github.com/nurpe/weshare-leasing/internal/http"
	"github.com/nurpe/weshare-leasing/internal/http/middleware"
	"github.com/nurpe/weshare-leasing/internal/i18n"
	"github.com/nurpe/weshare-leasing/internal/logger"
	"github.com/nurpe/weshare-leasing/internal/mailer"
	"github.com/nurpe/weshare-leasing/internal/notify"
	"github.com/nurpe/weshare-leasing/internal/pdf"
	"github.com/nurpe/weshare-leasing/internal/repository"
	"github.com/nurpe/weshare-leasing/internal/sequence"
	"github.com/nurpe/weshare-leasing/internal/service"
	"github.com/nurpe/weshare-leasing/internal/storage"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)
	deadLetter := logger.DeadLetter(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	docs, err := newDocumentManager(ctx, cfg.Storage, deadLetter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init document storage")
	}
	if !docs.RemoteEnabled() {
		log.Warn().Str("fallback", cfg.Storage.Fallback).Msg("object store disabled")
	}

	redisClient, err := db.NewRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	translator, err := i18n.New(cfg.Site.DefaultLanguage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load locale catalogs")
	}

	templates := mailer.NewCachedTemplates(mailer.NewDBTemplates(database), redisClient, cfg.Notifications.TemplateCacheTTL, log.With().Str("component", "templates").Logger())
	renderer := mailer.NewRenderer(templates, translator, cfg.Site)

	var sender mailer.Sender = mailer.NewLogSender(log.With().Str("component", "mail").Logger())
	if cfg.SMTP.Enabled() {
		sender = mailer.NewSMTPSender(cfg.SMTP)
	} else {
		log.Warn().Msg("SMTP_HOST not set, emails are logged instead of sent")
	}

	mailQueue := mailer.NewQueue(cfg.Mail.Workers, cfg.Mail.QueueSize, log.With().Str("component", "mail_queue").Logger(), deadLetter)
	mailQueue.Start(ctx)

	users := repository.NewUserRepository(database)
	projects := repository.NewProjectRepository(database)
	contracts := repository.NewContractRepository(database)
	invoices := repository.NewInvoiceRepository(database)
	payments := repository.NewPaymentRepository(database)
	payouts := repository.NewPayoutRepository(database)
	notifications := repository.NewNotificationRepository(database)

	dispatcher := notify.NewDispatcher(notify.Deps{
		Notifications: notifications,
		Users:         users,
		Translator:    translator,
		Renderer:      renderer,
		Sender:        sender,
		Scheduler:     mailQueue,
		Blobs:         docs,
		Log:           log.With().Str("component", "notify").Logger(),
	})

	numbers := sequence.NewAllocator(database, cfg.Sequence.PadWidth)
	serviceLog := log.With().Str("component", "service").Logger()

	invoiceService := service.NewInvoiceService(database, invoices, projects, users, numbers, cfg.Sequence.InvoicePrefix, pdf.NewGenerator(), dispatcher, cfg.Site, serviceLog)
	notificationService := service.NewNotificationService(notifications, serviceLog)
	services := httphandler.Services{
		Contracts:     service.NewContractService(contracts, projects, users, docs, dispatcher, serviceLog),
		Projects:      service.NewProjectService(database, projects, contracts, users, dispatcher, translator, serviceLog),
		Invoices:      invoiceService,
		Payments:      service.NewPaymentService(database, payments, invoices, invoiceService, docs, dispatcher, serviceLog),
		Payouts:       service.NewPayoutService(database, payouts, invoices, projects, users, numbers, cfg.Sequence.PayoutPrefix, excel.NewGenerator(), docs, dispatcher, serviceLog),
		Notifications: notificationService,
	}

	go notificationService.RunSweeper(ctx, cfg.Notifications.SweepInterval, cfg.Notifications.RetentionDays)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(services, docs, mailQueue, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.AllowedOrigins, log)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("starting leasing service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown requested")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := mailQueue.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Int64("dropped", mailQueue.Dropped()).Msg("mail queue did not drain")
	}
	log.Info().Msg("leasing service stopped")
}

func newDocumentManager(ctx context.Context, cfg config.StorageConfig, deadLetter zerolog.Logger) (*storage.Manager, error) {
	var remote storage.Store
	if cfg.RemoteEnabled() {
		s3Store, err := storage.NewS3Store(ctx, cfg.S3, cfg.SignedURLTTL)
		if err != nil {
			return nil, err
		}
		remote = s3Store
	}

	// The local store stays mounted for reads of documents written to disk
	// earlier, even when new writes are not allowed to land there.
	local, err := storage.NewLocalStore(cfg.LocalDir, cfg.LocalBaseURL)
	if err != nil {
		return nil, err
	}
	fallback := cfg.Driver == config.StorageDriverLocal || cfg.Fallback == config.StorageFallbackLocal
	return storage.NewManager(remote, local, fallback, cfg.SignedURLTTL, deadLetter), nil
}
