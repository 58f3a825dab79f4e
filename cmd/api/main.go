package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"go.uber.org/zap"

	"portfolio/api/internal/app"
	"portfolio/api/internal/auth"
	"portfolio/api/internal/config"
	"portfolio/api/internal/email"
	"portfolio/api/internal/kv"
	"portfolio/api/internal/logging"
	"portfolio/api/internal/media"
	"portfolio/api/internal/portfolio"
	"portfolio/api/internal/search"
	"portfolio/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	defaults, err := portfolio.LoadDefault(cfg.DefaultsPath)
	if err != nil {
		logger.Fatal("load default document", zap.Error(err))
	}

	docs, err := kv.NewRedisStore(cfg.KVURL)
	if err != nil {
		logger.Fatal("kv client", zap.Error(err))
	}
	defer docs.Close()
	if !docs.Configured() {
		logger.Warn("KV env vars missing, content endpoints will fail until configured")
	}

	deps := app.Dependencies{Documents: docs}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()
		if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
			logger.Fatal("migrations failed", zap.Error(err))
		}
		deps.Messages = store.NewPostgresStore(db)
		logger.Info("contact messages stored in postgres")
	}

	if cfg.SMTPConfigured() {
		deps.Mailer = email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		})
	}

	var meiliClient *search.Meili
	var index search.Index
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
		defer meiliClient.Close()
		index = meiliClient
	}
	searchService := search.NewService(index, logger)
	defer searchService.Close()
	deps.Search = searchService

	storage, err := media.NewStorage(media.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
		PublicURL: cfg.MinioPublicURL,
	})
	if err != nil {
		logger.Fatal("media storage", zap.Error(err))
	}
	if storage != nil {
		if err := storage.EnsureBucket(ctx); err != nil {
			logger.Warn("media bucket unavailable", zap.Error(err))
		}
		deps.Media = storage
	}

	credentials := auth.StaticCredentials{
		Username:     cfg.AdminUsername,
		Password:     cfg.AdminPassword,
		PasswordHash: cfg.AdminPasswordHash,
	}
	if !credentials.Configured() {
		logger.Warn("ADMIN_PASSWORD and ADMIN_PASSWORD_HASH unset, admin login is disabled")
	}
	gate := auth.NewGate(credentials, auth.GateOptions{TTL: cfg.SessionTTL, Secure: cfg.CookieSecure})

	service := app.New(cfg, defaults, deps)
	if docs.Configured() && index != nil {
		// Prime the search index with whatever is stored now.
		if doc, err := service.GetContent(logging.WithLogger(ctx, logger)); err == nil {
			searchService.Reindex(doc.Projects)
		}
	}

	httpServer := app.NewHTTPServer(service, gate, cfg.CORSOrigin, logger)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("portfolio API listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
