package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/reviewgate/internal/application"
	appgating "github.com/bryanwahyu/reviewgate/internal/application/gating"
	appreviews "github.com/bryanwahyu/reviewgate/internal/application/reviews"
	"github.com/bryanwahyu/reviewgate/internal/config"
	domanalyzers "github.com/bryanwahyu/reviewgate/internal/domain/analyzers"
	domcontent "github.com/bryanwahyu/reviewgate/internal/domain/content"
	domfindings "github.com/bryanwahyu/reviewgate/internal/domain/findings"
	domprofiles "github.com/bryanwahyu/reviewgate/internal/domain/profiles"
	domreviews "github.com/bryanwahyu/reviewgate/internal/domain/reviews"
	domrunerrors "github.com/bryanwahyu/reviewgate/internal/domain/runerrors"
	domtasks "github.com/bryanwahyu/reviewgate/internal/domain/tasks"
	infraai "github.com/bryanwahyu/reviewgate/internal/infra/ai"
	"github.com/bryanwahyu/reviewgate/internal/infra/ai/gemini"
	"github.com/bryanwahyu/reviewgate/internal/infra/ai/openai"
	builtins "github.com/bryanwahyu/reviewgate/internal/infra/analyzers"
	"github.com/bryanwahyu/reviewgate/internal/infra/contextbuilder"
	mysqlp "github.com/bryanwahyu/reviewgate/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/reviewgate/internal/infra/db/postgres"
	"github.com/bryanwahyu/reviewgate/internal/infra/httpserver"
	"github.com/bryanwahyu/reviewgate/internal/infra/queue"
	minioStore "github.com/bryanwahyu/reviewgate/internal/infra/storage"
	"github.com/bryanwahyu/reviewgate/internal/infra/workflow"
	"github.com/bryanwahyu/reviewgate/internal/middleware"
)

// repos bundles the storage ports so both drivers share one wiring path.
type repos struct {
	runs     domreviews.Repository
	findings domfindings.Repository
	profiles domprofiles.Repository
	items    domcontent.Store
	errors   domrunerrors.Repository
	tasks    queue.Store
}

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

	// connect database
	var db *sql.DB
	var rp repos
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		rp = repos{
			runs:     postgresp.NewRunRepository(db),
			findings: postgresp.NewFindingRepository(db),
			profiles: postgresp.NewProfileRepository(db),
			items:    postgresp.NewContentRepository(db),
			errors:   postgresp.NewRunErrorRepository(db),
			tasks:    postgresp.NewTaskRepository(db),
		}
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		rp = repos{
			runs:     mysqlp.NewRunRepository(db),
			findings: mysqlp.NewFindingRepository(db),
			profiles: mysqlp.NewProfileRepository(db),
			items:    mysqlp.NewContentRepository(db),
			errors:   mysqlp.NewRunErrorRepository(db),
			tasks:    mysqlp.NewTaskRepository(db),
		}
	}
	defer db.Close()

	// init minio transcript store (optional)
	var transcripts appreviews.TranscriptStore
	if cfg.Minio.Enabled {
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
		transcripts = store
	}

	// init AI providers
	multi := infraai.NewMulti(cfg.AI.DefaultProvider)
	if cfg.AI.OpenAIKey != "" {
		multi.Register("openai", openai.NewClient(cfg.AI.OpenAIKey, cfg.AI.DefaultModel))
	}
	if cfg.AI.GeminiKey != "" {
		gc, err := gemini.NewClient(ctx, cfg.AI.GeminiKey, cfg.AI.DefaultModel)
		if err != nil {
			log.Fatalf("gemini init error: %v", err)
		}
		multi.Register("gemini", gc)
	}

	// init analyzer registry
	registry := domanalyzers.NewRegistry(
		builtins.Clarity(),
		builtins.Compliance(),
	)

	// policy text for the compliance analyzer and prompt context
	policyText := ""
	if cfg.Reviews.PolicyFile != "" {
		raw, err := os.ReadFile(cfg.Reviews.PolicyFile)
		if err != nil {
			log.Fatalf("policy file read error: %v", err)
		}
		policyText = string(raw)
	}
	builder := contextbuilder.New(policyText)

	// init deferred-task queue on the same database
	worker := queue.New(rp.tasks, time.Duration(cfg.Reviews.QueuePollSeconds)*time.Second, cfg.Reviews.QueueBatch)

	// init review orchestrator
	reviewsSvc := &appreviews.Service{
		Runs:        rp.runs,
		Findings:    rp.findings,
		Profiles:    rp.profiles,
		Items:       rp.items,
		Builder:     builder,
		Registry:    registry,
		Provider:    multi,
		Scheduler:   worker,
		Errors:      rp.errors,
		Transcripts: transcripts,
		Clock:       application.SystemClock{},
		Sleeper:     application.SystemSleeper{},
		DefaultMode: domprofiles.RunMode(cfg.Reviews.DefaultMode),
	}
	worker.SetHandler(domtasks.HandlerFunc(reviewsSvc.HandleTask))

	// init gating engine
	defs := make(map[string]workflow.Definition, len(cfg.Workflows))
	for itemType, wf := range cfg.Workflows {
		defs[itemType] = workflow.Definition{Transitions: wf.Transitions}
	}
	gatingSvc := &appgating.Service{
		Runs:        rp.runs,
		Findings:    rp.findings,
		Profiles:    rp.profiles,
		Items:       rp.items,
		Builder:     builder,
		Transitions: workflow.NewStaticOracle(defs),
	}

	// start queue worker
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go worker.Start(workerCtx)

	// init router with middleware chain
	health := middleware.HealthHandler(middleware.NewDatabaseHealthChecker(db, cfg.Database.Driver))
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys, cfg.Auth.OverrideActors))
	mux.Use(middleware.RateLimitMiddleware(100, 10))
	mux.Mount("/", httpserver.NewRouter(reviewsSvc, gatingSvc, rp.profiles, health))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // sync runs can wait on provider backoff
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

	stopWorker()
	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
