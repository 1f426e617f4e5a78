package main

import (
	"context"
	"os"

	"brokerage/internal/config"
	"brokerage/internal/engine"
	"brokerage/internal/handlers"
	"brokerage/internal/jobs"
	"brokerage/internal/middleware"
	"brokerage/internal/quote"
	"brokerage/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()

	db, err := repository.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to the database")
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate schema")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	quotes := quote.NewClient(cfg.QuoteBaseURL, cfg.QuoteTimeout, rdb, cfg.QuoteTTL, logger.With().Str("component", "quote").Logger())
	eng := engine.New(db, quotes, logger.With().Str("component", "engine").Logger())

	authHandler := handlers.NewAuthHandler(db, handlers.NewRedisTokenStore(rdb), cfg.JWTSecret, logger.With().Str("component", "auth").Logger())
	tradeHandler := handlers.NewTradeHandler(eng, logger.With().Str("component", "trade").Logger())
	marketHandler := handlers.NewMarketHandler(quotes, db, logger.With().Str("component", "market").Logger())

	refresher := jobs.NewPriceRefresher(db, quotes, cfg.QuoteTimeout*10, logger.With().Str("component", "jobs").Logger())
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshEvery, refresher.Run); err != nil {
		logger.Fatal().Err(err).Str("schedule", cfg.RefreshEvery).Msg("invalid price refresh schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := gin.Default()

	// Public routes
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	// Protected routes
	auth := router.Group("/")
	auth.Use(middleware.JWTAuth(cfg.JWTSecret))
	{
		auth.GET("/", tradeHandler.Portfolio)
		auth.POST("/buy", tradeHandler.Buy)
		auth.POST("/sell", tradeHandler.Sell)
		auth.GET("/history", tradeHandler.History)
		auth.GET("/quote/:symbol", marketHandler.Quote)
		auth.POST("/logout", authHandler.Logout)
	}

	logger.Info().Str("addr", cfg.ListenAddr).Msg("starting server")
	if err := router.Run(cfg.ListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}
