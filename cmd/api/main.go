package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adityarama/tutorlens/internal/application"
	appjobs "github.com/adityarama/tutorlens/internal/application/jobs"
	"github.com/adityarama/tutorlens/internal/config"
	"github.com/adityarama/tutorlens/internal/domain/anomaly"
	"github.com/adityarama/tutorlens/internal/domain/artifacts"
	"github.com/adityarama/tutorlens/internal/domain/billing"
	domjobs "github.com/adityarama/tutorlens/internal/domain/jobs"
	"github.com/adityarama/tutorlens/internal/infra/ai/local"
	aiopenai "github.com/adityarama/tutorlens/internal/infra/ai/openai"
	"github.com/adityarama/tutorlens/internal/infra/ai/webhook"
	"github.com/adityarama/tutorlens/internal/infra/db/inmem"
	mysqlp "github.com/adityarama/tutorlens/internal/infra/db/mysql"
	postgresp "github.com/adityarama/tutorlens/internal/infra/db/postgres"
	"github.com/adityarama/tutorlens/internal/infra/httpserver"
	"github.com/adityarama/tutorlens/internal/infra/notify"
	minioStore "github.com/adityarama/tutorlens/internal/infra/storage"
	"github.com/adityarama/tutorlens/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// persistence backend
	var (
		ledger    billing.Ledger
		repo      artifacts.Repository
		anomalies anomaly.Repository
		checkers  = map[string]middleware.HealthChecker{}
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		defer db.Close()
		ledger = postgresp.NewSubscriptionRepository(db)
		repo = postgresp.NewArtifactRepository(db)
		anomalies = postgresp.NewAnomalyRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	case "inmem":
		log.Println("running with in-memory storage (dev mode, nothing survives restart)")
		ledger = inmem.NewLedger()
		repo = inmem.NewArtifactRepository()
		anomalies = inmem.NewAnomalyRepository()
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		defer db.Close()
		ledger = mysqlp.NewSubscriptionRepository(db)
		repo = mysqlp.NewArtifactRepository(db)
		anomalies = mysqlp.NewAnomalyRepository(db)
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// dispatcher backend: webhook when configured, else OpenAI, else
	// the local placeholder generator
	var dispatcher domjobs.Dispatcher
	switch {
	case cfg.Webhook.BaseURL != "" || len(cfg.Webhook.URLs) > 0:
		dispatcher = webhook.NewClient(cfg.WebhookURL, cfg.WebhookTimeout())
	case cfg.OpenAI.APIKey != "":
		dispatcher = aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	default:
		log.Println("no webhook or openai configured, using local placeholder dispatcher")
		dispatcher = local.New()
	}

	// raw response archive (optional)
	var archive appjobs.Archive
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		archive = store
	}

	// notification hub
	hub := notify.NewHub()

	// init service
	svc := &appjobs.Service{
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Artifacts:  repo,
		Anomalies:  anomalies,
		Publisher:  hub,
		Archive:    archive,
		Costs:      cfg.CreditCosts(),
		Clock:      application.SystemClock{},
	}

	// init router + middleware chain
	mux := chi.NewRouter()
	// auth first so downstream middleware sees the resolved operator
	if len(cfg.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.APIKeys))
	}
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	if cfg.RateLimit.Capacity > 0 {
		rl := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
		mux.Use(middleware.RateLimitMiddleware(rl))
	}
	mux.Get("/livez", middleware.LivenessHandler)
	if len(checkers) > 0 {
		mux.Method(http.MethodGet, "/healthz", middleware.HealthHandler(checkers))
	}
	mux.Mount("/", httpserver.NewRouter(svc, ledger, repo, anomalies, hub))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// generation requests block on the upstream AI call; give
		// writes the same budget as the dispatch timeout plus slack
		WriteTimeout: cfg.WebhookTimeout() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
