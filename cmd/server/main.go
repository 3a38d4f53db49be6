// Command server runs the accreditation service: public registration plus the
// admin back office. main wires dependencies from config and keeps the server
// lifecycle small; business logic lives in the internal services.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credencia/internal/audit"
	authhandler "credencia/internal/auth/handler"
	authservice "credencia/internal/auth/service"
	"credencia/internal/dashboard"
	"credencia/internal/document/blob"
	documenthandler "credencia/internal/document/handler"
	documentservice "credencia/internal/document/service"
	documentstore "credencia/internal/document/store"
	"credencia/internal/export"
	"credencia/internal/lookup/cep"
	"credencia/internal/lookup/cnpj"
	"credencia/internal/notification"
	"credencia/internal/platform/config"
	"credencia/internal/platform/httpserver"
	"credencia/internal/platform/logger"
	"credencia/internal/platform/metrics"
	"credencia/internal/platform/postgres"
	"credencia/internal/platform/redis"
	professionalhandler "credencia/internal/professional/handler"
	professionalservice "credencia/internal/professional/service"
	professionalstore "credencia/internal/professional/store"
	registrationhandler "credencia/internal/registration/handler"
	registrationservice "credencia/internal/registration/service"
	httptransport "credencia/internal/transport/http"

	auth "credencia/internal/auth"
	txpkg "credencia/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx := context.Background()
	m := metrics.New()

	// Storage. Postgres when configured, in-memory otherwise.
	var (
		db            *sql.DB
		txRunner      txpkg.Runner = txpkg.NoopRunner{}
		professionals professionalstore.Store
		documents     documentstore.Store
		auditStore    audit.Store
		adminUsers    auth.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		txRunner = txpkg.NewSQLRunner(db)
		professionals = professionalstore.NewPostgresStore(db)
		documents = documentstore.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		adminUsers = auth.NewPostgresStore(db)
		log.Info("postgres storage enabled")
	} else {
		professionals = professionalstore.NewMemoryStore()
		documents = documentstore.NewMemoryStore()
		auditStore = audit.NewMemoryStore()
		adminUsers = auth.NewMemoryStore()
		log.Warn("no DATABASE_URL, using in-memory storage")
	}

	rc, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}

	// Audit pipeline, with optional Kafka fan-out.
	var auditSink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer func() { _ = sink.Close(context.Background()) }()
		auditSink = sink
		log.Info("audit kafka sink enabled", "topic", cfg.AuditTopic)
	}
	auditPub := audit.NewPublisher(auditStore, auditSink, log)

	// Document blobs: GCS when a bucket is configured, local disk otherwise.
	var blobs blob.Store
	if cfg.GCSBucket != "" {
		blobs, err = blob.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			return err
		}
		log.Info("gcs blob storage enabled", "bucket", cfg.GCSBucket)
	} else {
		blobs, err = blob.NewFilesystemStore(cfg.DocumentDir)
		if err != nil {
			return err
		}
	}

	// Back office auth.
	if err := authservice.SeedAdmin(ctx, adminUsers, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return err
	}
	var lockout auth.Lockout = auth.NewMemoryLockout()
	if rc != nil {
		lockout = auth.NewRedisLockout(rc.Client)
	}
	authSvc := authservice.New(adminUsers, cfg.JWTSigningKey, cfg.TokenTTL,
		authservice.WithLockout(lockout),
		authservice.WithAudit(auditPub),
		authservice.WithMetrics(m),
		authservice.WithLogger(log),
	)

	// External lookups.
	cepClient := cep.NewClient(cfg.ViaCEPBaseURL, cep.WithMetrics(m))
	var cnpjCache cnpj.Cache = cnpj.NewMemoryCache()
	if rc != nil {
		cnpjCache = cnpj.NewRedisCache(rc.Client)
	}
	cnpjSvc := cnpj.NewService(cnpj.NewBrasilAPIProvider(cfg.BrasilAPIBaseURL, log),
		cnpj.WithCache(cnpjCache, config.CNPJCacheTTL),
		cnpj.WithMetrics(m),
		cnpj.WithLogger(log),
	)

	// Registrant-facing email.
	notifier := notification.NewService(
		notification.NewProviderFromConfig(cfg.SendGridAPIKey, cfg.EmailFrom, log), log)

	// Domain services.
	professionalSvc := professionalservice.New(professionals, auditPub,
		professionalservice.WithNotifier(notifier),
		professionalservice.WithMetrics(m),
		professionalservice.WithTxRunner(txRunner),
		professionalservice.WithLogger(log),
	)
	documentSvc := documentservice.New(documents, blobs, professionals, auditPub,
		documentservice.WithMetrics(m),
		documentservice.WithLogger(log),
	)
	submissionSvc := registrationservice.New(professionalSvc, documentSvc,
		registrationservice.WithRegistryChecker(cnpjSvc),
		registrationservice.WithTxRunner(txRunner),
		registrationservice.WithLogger(log),
	)
	exportSvc := export.New(professionals, export.WithMetrics(m), export.WithLogger(log))
	dashboardSvc := dashboard.NewService(professionals, auditStore)

	router := httptransport.NewRouter(httptransport.Deps{
		Professionals:  professionalhandler.New(professionalSvc, exportSvc, log),
		Documents:      documenthandler.New(documentSvc, log),
		Registrations:  registrationhandler.New(submissionSvc, log),
		Auth:           authhandler.New(authSvc, log),
		Dashboard:      dashboard.NewHandler(dashboardSvc, log),
		CEP:            cep.NewHandler(cepClient, log),
		CNPJ:           cnpj.NewHandler(cnpjSvc, log),
		TokenValidator: authSvc,
		Metrics:        m,
		Logger:         log,
	})

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
