package main

import (
	"context"
	"os"

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
	if cfg.ServiceKey == "" {
		log.Warn().Msg("SERVICE_KEY is not set; budget item checks will be rejected")
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

	transactionService := service.NewTransactionService(postgres.NewTransactionRepository(pool))

	hub := websocket.NewHub()
	transactionService.SetEventPublisher(hub)

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
	handler.RegisterLedgerRoutes(e,
		authMiddleware,
		middleware.NewServiceKeyAuthMiddleware(cfg.ServiceKey),
		rateLimiter,
		handler.NewTransactionHandler(transactionService),
		handler.NewWebSocketHandler(hub, wsValidator, cfg.CORSOrigins),
	)

	server.Run(e, "ledger-api", cfg.Port, hub.CloseAll, rateLimiter.Stop)
}
