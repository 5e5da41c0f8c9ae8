package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/covermapio/api/internal/app"
	"github.com/covermapio/api/internal/config"
	"github.com/covermapio/api/internal/infra/billing"
	"github.com/covermapio/api/internal/infra/http"
	"github.com/covermapio/api/internal/infra/http/handler"
	"github.com/covermapio/api/internal/infra/http/middleware"
	"github.com/covermapio/api/internal/infra/http/routes"
	"github.com/covermapio/api/internal/infra/jobs"
	"github.com/covermapio/api/internal/infra/postgres"
	"github.com/covermapio/api/internal/infra/redis"
	"github.com/covermapio/api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log := logger.NewDefault()
		log.Error("failed to load configuration", "error", err)
		return 1
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	log.Info("starting application", "app", cfg.App.Name, "env", cfg.App.Env)

	// Infrastructure
	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		return 1
	}
	defer closeWithLog(db, "database", log)
	log.Info("database connected")

	redisClient, err := redis.New(&cfg.Redis, log)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		return 1
	}
	defer closeWithLog(redisClient, "redis", log)
	log.Info("redis connected")

	// Repositories
	planRepo := postgres.NewPlanRepository(db)
	accountRepo := postgres.NewAccountRepository(db, planRepo)
	repoRepo := postgres.NewRepoRepository(db)

	// Caches
	planCache, err := app.NewPlanCache(redisClient)
	if err != nil {
		log.Error("failed to initialize plan cache", "error", err)
		return 1
	}
	accountCache, err := app.NewAccountCache(redisClient)
	if err != nil {
		log.Error("failed to initialize account cache", "error", err)
		return 1
	}
	recentRepos, err := redis.NewRecentRepoStore(redisClient)
	if err != nil {
		log.Error("failed to initialize recent-repo store", "error", err)
		return 1
	}

	// Billing gateway
	gateway, err := billing.NewClient(&cfg.Billing, log)
	if err != nil {
		log.Error("failed to initialize billing gateway", "error", err)
		return 1
	}

	// Job queue
	jobClient, err := jobs.NewClient(jobs.ClientConfig{
		RedisAddr:     cfg.Redis.Addr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
	}, log)
	if err != nil {
		log.Error("failed to initialize job client", "error", err)
		return 1
	}
	defer closeWithLog(jobClient, "job client", log)

	// Services
	planService := app.NewPlanService(planRepo, planCache, log)
	accountService := app.NewAccountService(accountRepo, accountCache, log)
	upgradeService := app.NewUpgradeService(accountService, planService, accountRepo, gateway, jobClient, log)
	repoListService := app.NewRepoListService(repoRepo, recentRepos, cfg.Demo, cfg.App.SelfHosted, log)
	log.Info("services initialized")

	// Background worker
	var worker *jobs.Worker
	if cfg.Worker.Enabled {
		worker, err = jobs.NewWorker(jobs.WorkerConfig{
			RedisAddr:     cfg.Redis.Addr(),
			RedisPassword: cfg.Redis.Password,
			RedisDB:       cfg.Redis.DB,
			Concurrency:   cfg.Worker.Concurrency,
		}, accountService, log)
		if err != nil {
			log.Error("failed to initialize worker", "error", err)
			return 1
		}
		if err := worker.Start(); err != nil {
			log.Error("failed to start worker", "error", err)
			return 1
		}
		log.Info("background worker started")
	}

	// Trial sweeper
	var sweeper *app.TrialSweeper
	if cfg.Sweeper.Enabled {
		sweeper, err = app.NewTrialSweeper(accountService, cfg.Sweeper.Schedule, log)
		if err != nil {
			log.Error("failed to initialize trial sweeper", "error", err)
			return 1
		}
		sweeper.Start()
		log.Info("trial sweeper started", "schedule", cfg.Sweeper.Schedule)
	}

	// HTTP server
	auth := middleware.NewAuthenticator(cfg.Auth.JWTSecret, log)
	handlers := routes.Handlers{
		Health:  handler.NewHealthHandler(handler.WithDatabase(db), handler.WithRedis(redisClient)),
		Plan:    handler.NewPlanHandler(planService, log),
		Account: handler.NewAccountHandler(accountService, upgradeService, log),
		Repo:    handler.NewRepoHandler(repoListService, log),
	}

	server := http.NewServer(cfg, log)
	routes.Register(server.Router(), handlers, auth)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("server error", "error", err)
		}
	}()
	log.Info("application started", "http_addr", cfg.Server.Addr())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop()
	}
	if worker != nil {
		worker.Stop()
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}

	log.Info("application stopped")
	return 0
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, name string, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.Error("failed to close "+name, "error", err)
	}
}
