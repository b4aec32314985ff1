package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	httpctx "github.com/restoinsight/insights-server/internal/api/http/context"
	"github.com/restoinsight/insights-server/internal/api/http/handler"
	"github.com/restoinsight/insights-server/internal/api/http/router"
	httpServer "github.com/restoinsight/insights-server/internal/api/http/server"
	"github.com/restoinsight/insights-server/internal/config"
	"github.com/restoinsight/insights-server/internal/generator/openai"
	"github.com/restoinsight/insights-server/internal/logger"
	"github.com/restoinsight/insights-server/internal/mail"
	"github.com/restoinsight/insights-server/internal/model"
	"github.com/restoinsight/insights-server/internal/ratelimit"
	"github.com/restoinsight/insights-server/internal/renderer"
	"github.com/restoinsight/insights-server/internal/repository/memory"
	"github.com/restoinsight/insights-server/internal/repository/postgres"
	"github.com/restoinsight/insights-server/internal/server"
	"github.com/restoinsight/insights-server/internal/service"
	memstore "github.com/restoinsight/insights-server/internal/storage/memory"
	storage "github.com/restoinsight/insights-server/internal/storage/minio"
	"github.com/restoinsight/insights-server/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.NewWithFormat(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	pingers := make(map[string]handler.Pinger)

	var (
		accounts model.AccountStore
		reports  model.ReportStore
	)
	if cfg.Database.InMemory {
		logger.Warn("using in-memory repositories, data is lost on restart")
		accountRepo := memory.NewAccountRepository()
		accounts = accountRepo
		reports = memory.NewReportRepository(accountRepo)
	} else {
		db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
		if err != nil {
			logger.Fatal("failed to initialize storage", "error", err)
		}
		defer db.Close()

		accounts = postgres.NewAccountRepository(db)
		reports = postgres.NewReportRepository(db)
		pingers["postgres"] = db
	}

	var artifacts model.ArtifactStore
	if cfg.Storage.InMemory {
		logger.Warn("using in-memory artifact store, reports are lost on restart")
		artifacts = memstore.NewStore()
	} else {
		minioClient, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
			Secure: cfg.Storage.UseSSL,
		})
		if err != nil {
			logger.Fatal("failed to create minio client", "error", err)
		}
		storageClient, err := storage.NewClient(ctx, minioClient, cfg.Storage.Bucket)
		if err != nil {
			logger.Fatal("failed to initialize storage client", "error", err)
		}
		artifacts = storageClient
		pingers["minio"] = storageClient
	}

	var routerOpts []router.Option
	if cfg.Redis.URL != "" {
		limiter, redisClient, err := ratelimit.NewFromURL(ctx, cfg.Redis.URL, cfg.Redis.PerMinute, time.Minute)
		if err != nil {
			logger.Fatal("failed to initialize rate limiter", "error", err)
		}
		defer redisClient.Close()

		routerOpts = append(routerOpts, router.WithLimiter(limiter))
		pingers["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	routerOpts = append(routerOpts,
		router.WithCORSOrigins(cfg.HTTP.CORSOrigins),
		router.WithMaxUploadBytes(cfg.Report.MaxUploadBytes),
		router.WithPingers(pingers),
	)

	if cfg.Generator.APIKey == "" {
		logger.Warn("GENERATOR_API_KEY is empty, report generation will fail")
	}
	generator := openai.NewClient(cfg.Generator.APIKey,
		openai.WithBaseURL(cfg.Generator.BaseURL),
		openai.WithModel(cfg.Generator.Model),
	)
	pdf := renderer.NewPDF(cfg.Renderer.Binary)

	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)
	mailer := mail.NewLogMailer(logger, cfg.Mail.VerifyLink)
	ctxMgr := httpctx.NewManager()

	quotaService := service.NewQuota(accounts, logger)
	authService := service.NewAuth(accounts, tokenManager, mailer, logger)
	historyService := service.NewHistory(reports, artifacts, logger)
	reportService := service.NewReport(accounts, reports, artifacts, quotaService, generator, pdf, logger,
		service.WithGenerationTimeout(cfg.Generator.Timeout),
		service.WithRenderTimeout(cfg.Renderer.Timeout),
	)

	r := router.New(authService, reportService, historyService, quotaService, tokenManager, ctxMgr, logger, routerOpts...)
	srv := httpServer.NewHTTPServer(r.Register(), cfg.HTTP.Address, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)

	var sl model.SecurityLayer
	if cfg.HTTP.EnableHTTPS {
		sl = server.NewTLSListener(cfg.HTTP.CertFileName, cfg.HTTP.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func(s model.Server) {
		defer wg.Done()
		logger.Info("Starting server on", "address", s.Address(), "https", cfg.HTTP.EnableHTTPS)
		if err := s.Start(sl); err != nil {
			logger.Error("failed to start server", "error", err)
			stop()
		}
	}(srv)

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", "error", err, "address", srv.Address())
	}

	wg.Wait()
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}
