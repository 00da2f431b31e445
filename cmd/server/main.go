package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lifeos/internal/agents"
	"lifeos/internal/bus"
	"lifeos/internal/config"
	"lifeos/internal/database"
	"lifeos/internal/handlers"
	"lifeos/internal/jobs"
	"lifeos/internal/logging"
	"lifeos/internal/models"
	"lifeos/internal/orchestrator"
	"lifeos/internal/planner"
	"lifeos/internal/services"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	logging.Init()

	log.Println("🚀 Starting LifeOS Server...")

	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	tunables, err := config.LoadTunables(cfg.TunablesPath)
	if err != nil {
		log.Fatalf("❌ Failed to load tunables: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB
	db, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer db.Close(context.Background())
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatalf("❌ Failed to ensure indexes: %v", err)
	}
	log.Println("✅ MongoDB connected, indexes ensured")

	// Redis is optional: without it, locks and debounce fall back to
	// in-process equivalents.
	var redis *services.RedisService
	var debouncer services.Debouncer = services.NewMemoryDebouncer()
	if cfg.RedisURL != "" {
		redis, err = services.NewRedisService(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, using in-process fallbacks: %v", err)
			redis = nil
		} else {
			defer redis.Close()
			debouncer = services.NewRedisDebouncer(redis)
			log.Println("✅ Redis connected")
		}
	}

	metrics := services.InitMetrics()

	// Stores
	journalStore := services.NewJournalStore(db)
	commitmentStore := services.NewCommitmentStore(db)
	areaStore := services.NewAreaStore(db)
	fulfilmentStore := services.NewFulfilmentStore(db)
	chapterStore := services.NewChapterStore(db)
	issueStore := services.NewIssueStore(db)
	transactionStore := services.NewTransactionStore(db)
	jobStore := services.NewJobStore(db)
	planStore := services.NewPlanStore(db)
	envelopeStore := services.NewEnvelopeStore(db)

	classifier := services.NewCachingClassifier(services.NewHeuristicClassifier())

	// Event bus + metrics hookup
	eventBus := bus.New()
	eventBus.OnDelivered(func(evtType models.EventType, agent models.AgentType, err error) {
		metrics.EventsPublished.WithLabelValues(string(evtType)).Inc()
		if err != nil {
			if agent == "" {
				metrics.CascadeDrops.Inc()
			} else {
				metrics.HandlerErrors.WithLabelValues(string(agent)).Inc()
			}
		}
	})

	// Agents
	journalAgent := agents.NewJournalAgent(journalStore, classifier, eventBus, debouncer, tunables)
	commitmentAgent := agents.NewCommitmentAgent(commitmentStore, areaStore, classifier, eventBus, tunables, metrics)
	fulfilmentAgent := agents.NewFulfilmentAgent(fulfilmentStore, eventBus, redis, metrics)
	narrativeAgent := agents.NewNarrativeAgent(chapterStore, journalStore, classifier, eventBus, tunables)
	integrityAgent := agents.NewIntegrityAgent(issueStore, commitmentStore, eventBus, metrics)
	financeAgent := agents.NewFinanceAgent(transactionStore, fulfilmentStore, classifier, eventBus)

	// Subscription table: the full reactive cascade, fixed at startup.
	eventBus.Subscribe(models.EventJournalEntryCreated, commitmentAgent)
	eventBus.Subscribe(models.EventJournalEntryCreated, fulfilmentAgent)
	eventBus.Subscribe(models.EventJournalEntryCreated, narrativeAgent)
	eventBus.Subscribe(models.EventJournalEntryCreated, financeAgent)
	eventBus.Subscribe(models.EventActionCompleted, commitmentAgent)
	eventBus.Subscribe(models.EventActionCompleted, fulfilmentAgent)
	eventBus.Subscribe(models.EventActionFailed, fulfilmentAgent)
	eventBus.Subscribe(models.EventActionFailed, integrityAgent)
	eventBus.Subscribe(models.EventActionCancelled, integrityAgent)
	eventBus.Subscribe(models.EventRollupRequested, fulfilmentAgent)

	// Planner + orchestrator
	plannerSvc := planner.New(planner.NewHeuristicDecomposer(), planStore, jobStore, envelopeStore, cfg.DefaultMaxRetries)
	orch := orchestrator.New(jobStore, envelopeStore, eventBus, metrics, cfg.MaxConcurrentJobs, cfg.PollInterval)
	registerExecutors(orch, journalStore, fulfilmentAgent, integrityAgent)
	orch.Start(ctx)
	log.Printf("✅ Orchestrator started (max concurrent: %d)", cfg.MaxConcurrentJobs)

	// Scheduled sweeps
	scheduler, err := jobs.NewScheduler(cfg, redis, fulfilmentAgent, integrityAgent)
	if err != nil {
		log.Fatalf("❌ Failed to create scheduler: %v", err)
	}
	scheduler.Start()

	// HTTP
	app := fiber.New(fiber.Config{
		AppName:      "LifeOS v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    1 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())

	prometheus := fiberprometheus.New("lifeos")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Single-tenant identity: the user comes from a header, defaulting to
	// the deployment owner.
	app.Use(func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			userID = "owner"
		}
		c.Locals("user_id", userID)
		return c.Next()
	})

	registerRoutes(app, db, redis,
		handlers.NewJournalHandler(journalAgent, journalStore),
		handlers.NewCommitmentHandler(commitmentAgent, commitmentStore),
		handlers.NewPlanHandler(plannerSvc, planStore),
		handlers.NewJobHandler(orch, jobStore),
		handlers.NewInsightsHandler(fulfilmentStore, chapterStore, issueStore, transactionStore, narrativeAgent),
	)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Printf("🛑 Received %v, shutting down...", sig)

		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️  Scheduler shutdown error: %v", err)
		}
		orch.Stop()
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️  Fiber shutdown error: %v", err)
		}
	}()

	log.Printf("🌐 Listening on :%s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
	log.Println("👋 Server stopped")
}

// registerExecutors binds the plan-task executors. Each runs the agent-side
// work for one phase of a plan.
func registerExecutors(orch *orchestrator.Orchestrator, journalStore *services.JournalStore, fa *agents.FulfilmentAgent, ia *agents.IntegrityAgent) {
	// Research: confirm there is journal history to draw on.
	orch.Register(models.AgentJournal, orchestrator.ExecutorFunc(func(ctx context.Context, job *models.Job) error {
		since := time.Now().UTC().AddDate(0, -3, 0)
		entries, err := journalStore.ListByUser(ctx, job.UserID, since, time.Time{})
		if err != nil {
			return err
		}
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Info("research complete", "entries", len(entries))
		return nil
	}))

	// Finance research reuses the journal history scan for now.
	orch.Register(models.AgentFinance, orchestrator.ExecutorFunc(func(ctx context.Context, job *models.Job) error {
		since := time.Now().UTC().AddDate(0, -3, 0)
		entries, err := journalStore.ListByUser(ctx, job.UserID, since, time.Time{})
		if err != nil {
			return err
		}
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Info("finance research complete", "entries", len(entries))
		return nil
	}))

	// Validate: check the integrity ledger.
	orch.Register(models.AgentIntegrity, orchestrator.ExecutorFunc(func(ctx context.Context, job *models.Job) error {
		score, err := ia.Score(ctx, job.UserID)
		if err != nil {
			return err
		}
		logging.WithJob(job.ID, string(job.Agent), job.UserID).Info("validation complete", "integrity_score", score)
		return nil
	}))

	// Report: refresh the current period's rollup.
	orch.Register(models.AgentFulfilment, orchestrator.ExecutorFunc(func(ctx context.Context, job *models.Job) error {
		return fa.ComputeRollup(ctx, job.UserID, agents.PeriodOf(time.Now().UTC()), nil)
	}))
}

func registerRoutes(app *fiber.App, db *database.MongoDB, redis *services.RedisService,
	journal *handlers.JournalHandler, commitment *handlers.CommitmentHandler,
	plan *handlers.PlanHandler, job *handlers.JobHandler, insights *handlers.InsightsHandler) {

	app.Get("/health", handlers.NewHealthHandler(db, redis).Handle)

	api := app.Group("/api")

	api.Post("/journal", journal.Create)
	api.Get("/journal", journal.List)
	api.Get("/journal/:id", journal.Get)
	api.Put("/journal/:id", journal.Edit)

	api.Get("/commitments", commitment.List)
	api.Post("/commitments/:id/confirm", commitment.Confirm)
	api.Post("/commitments/:id/cancel", commitment.Cancel)

	api.Post("/plans", plan.Create)
	api.Get("/plans", plan.List)
	api.Get("/plans/:id", plan.Get)

	api.Get("/jobs", job.List)
	api.Get("/jobs/:id", job.Get)
	api.Post("/jobs/:id/cancel", job.Cancel)

	api.Get("/fulfilment/:area/:dimension", insights.GetScore)
	api.Get("/chapters/:id", insights.GetChapter)
	api.Post("/chapters/:id/regenerate", insights.RegenerateChapter)
	api.Get("/integrity", insights.GetIntegrity)
	api.Post("/integrity/:id/resolve", insights.ResolveIssue)
	api.Get("/transactions", insights.ListTransactions)
}
