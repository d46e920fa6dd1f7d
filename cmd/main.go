package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/advisormatch-backend/internal/clients/redis"
	"github.com/yungbote/advisormatch-backend/internal/db"
	appHTTP "github.com/yungbote/advisormatch-backend/internal/http"
	"github.com/yungbote/advisormatch-backend/internal/http/handlers"
	"github.com/yungbote/advisormatch-backend/internal/http/middleware"
	"github.com/yungbote/advisormatch-backend/internal/observability"
	"github.com/yungbote/advisormatch-backend/internal/platform/anthropic"
	"github.com/yungbote/advisormatch-backend/internal/platform/logger"
	"github.com/yungbote/advisormatch-backend/internal/platform/openai"
	"github.com/yungbote/advisormatch-backend/internal/repos"
	"github.com/yungbote/advisormatch-backend/internal/services"
	"github.com/yungbote/advisormatch-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "advisormatch",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)
	sessionTTL := utils.GetEnvAsInt("SESSION_TTL_SECONDS", 3600, log)
	rateLimit := utils.GetEnvAsInt("RATE_LIMIT_PER_MINUTE", 30, log)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	facultyRepo := repos.NewFacultyRepo(thePG, log)
	paperRepo := repos.NewPaperRepo(thePG, log)

	// Provider clients
	openaiClient, err := openai.NewClient(log)
	if err != nil {
		log.Error("Could not init OpenAI client", "error", err)
		os.Exit(1)
	}
	anthropicClient, err := anthropic.NewClient(log)
	if err != nil {
		log.Error("Could not init Anthropic client", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	expander := services.NewQueryExpander(log)
	sessions := services.NewSessionStore(time.Duration(sessionTTL)*time.Second, log)
	searchService := services.NewSearchService(log, facultyRepo, paperRepo, openaiClient, expander)
	explanationService := services.NewExplanationService(log, facultyRepo, paperRepo, anthropicClient)
	explorerService := services.NewExplorerService(log, sessions, facultyRepo, paperRepo, openaiClient, anthropicClient)

	// Rate limiting (optional, requires REDIS_ADDR)
	var rateLimitMW = middleware.RateLimit(log, nil)
	if limiter, err := redis.NewRateLimiter(log, rateLimit, time.Minute); err != nil {
		log.Warn("Rate limiter disabled", "error", err)
	} else {
		defer limiter.Close()
		rateLimitMW = middleware.RateLimit(log, limiter)
	}

	// Handlers
	searchHandler := handlers.NewSearchHandler(log, searchService, explanationService)
	exploreHandler := handlers.NewExploreHandler(log, explorerService)
	healthHandler := handlers.NewHealthHandler()

	// Server
	server := appHTTP.NewServer(appHTTP.RouterConfig{
		Log:            log,
		SearchHandler:  searchHandler,
		ExploreHandler: exploreHandler,
		HealthHandler:  healthHandler,
		RateLimit:      rateLimitMW,
	})

	log.Info("Starting HTTP server", "addr", listenAddr)
	if err := server.Run(listenAddr); err != nil {
		log.Fatal("HTTP server exited", "error", err)
	}
}
