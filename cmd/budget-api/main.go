package main

import (
	"context"
	"os"

	"github.com/dafibh/tally/tally-backend/internal/client/ledger"
	"github.com/dafibh/tally/tally-backend/internal/config"
	"github.com/dafibh/tally/tally-backend/internal/handler"
	"github.com/dafibh/tally/tally-backend/internal/middleware"
	"github.com/dafibh/tally/tally-backend/internal/repository/postgres"
	"github.com/dafibh/tally/tally-backend/internal/server"
	"github.com/dafibh/tally/tally-backend/internal/service"
	"github.com/dafibh/tally/tally-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func main() {
	server.SetupLogger(os.Getenv("ENV"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.RequireLedger(); err != nil {
		log.Fatal().Err(err).Msg("Invalid ledger configuration")
	}

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Repositories
	budgetRepo := postgres.NewBudgetRepository(pool)
	expenseTypeRepo := postgres.NewExpenseTypeRepository(pool)
	preferencesRepo := postgres.NewPreferencesRepository(pool)

	// Ledger client for the delete guard
	ledgerClient := ledger.NewClient(cfg.Ledger.URL, cfg.ServiceKey, cfg.Ledger.Timeout)

	// Services
	budgetService := service.NewBudgetService(budgetRepo, expenseTypeRepo, ledgerClient, service.BudgetServiceConfig{
		Granularity:       cfg.Budget.Granularity,
		ItemPolicy:        cfg.Budget.ItemPolicy,
		LedgerConcurrency: cfg.Ledger.CheckConcurrency,
	})
	expenseTypeService := service.NewExpenseTypeService(expenseTypeRepo, budgetRepo)
	preferencesService := service.NewPreferencesService(preferencesRepo)

	// Real-time events
	hub := websocket.NewHub()
	budgetService.SetEventPublisher(hub)
	expenseTypeService.SetEventPublisher(hub)
	preferencesService.SetEventPublisher(hub)

	wsValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create WebSocket token validator")
	}

	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)

	e := server.New(cfg, pool)
	handler.RegisterBudgetRoutes(e,
		authMiddleware,
		rateLimiter,
		handler.NewBudgetHandler(budgetService),
		handler.NewExpenseTypeHandler(expenseTypeService),
		handler.NewPreferencesHandler(preferencesService),
		handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	)

	log.Info().
		Str("granularity", string(cfg.Budget.Granularity)).
		Str("item_policy", string(cfg.Budget.ItemPolicy)).
		Str("ledger_url", cfg.Ledger.URL).
		Msg("Budget service configured")

	server.Run(e, "budget-api", cfg.Port, hub.CloseAll, rateLimiter.Stop)
}
