package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gambling-bot/config"
	"gambling-bot/internal/adapter/discord"
	httpHandler "gambling-bot/internal/adapter/http/handler"
	fileStorage "gambling-bot/internal/adapter/storage/file"
	memStorage "gambling-bot/internal/adapter/storage/memory"
	pgStorage "gambling-bot/internal/adapter/storage/postgres"
	redisStorage "gambling-bot/internal/adapter/storage/redis"
	"gambling-bot/internal/core/ports"
	"gambling-bot/internal/service"
	"gambling-bot/pkg/logger"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("storage", cfg.Storage.Driver).
		Str("prefix", cfg.Discord.Prefix).
		Msg("Starting gambling bot")

	ctx := context.Background()

	// Redis backs the ledger, the gamble cooldown and the dedup guard
	var rdb *goredis.Client
	if cfg.NeedsRedis() {
		rdb, err = redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")
	}

	// Initialize ledger repository
	var (
		ledgerRepo ports.LedgerRepository
		auditRepo  ports.AuditRepository
		checkers   []ports.HealthChecker
	)
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
		}
		defer pool.Close()
		if err := pgStorage.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to apply schema")
		}
		log.Info().Msg("PostgreSQL connected")
		ledgerRepo = pgStorage.NewLedgerRepo(pool)
		auditRepo = pgStorage.NewAuditRepository(pool)
		checkers = append(checkers, pgStorage.NewHealthCheck(pool))
	case config.DriverRedis:
		ledgerRepo = redisStorage.NewLedgerStore(rdb, cfg.Redis.Prefix)
	case config.DriverMemory:
		store := memStorage.NewLedgerStore()
		ledgerRepo = store
		checkers = append(checkers, store)
		log.Warn().Msg("memory storage selected, balances are lost on restart")
	default:
		store := fileStorage.NewLedgerStore(afero.NewOsFs(), cfg.Storage.WalletPath(), cfg.Storage.CurrencyPath())
		ledgerRepo = store
		checkers = append(checkers, store)
	}
	if rdb != nil {
		checkers = append(checkers, redisStorage.NewHealthCheck(rdb))
	}

	// Initialize Redis stores
	var (
		cooldownStore ports.CooldownStore
		deduper       ports.EventDeduper
	)
	if rdb != nil {
		cooldownStore = redisStorage.NewCooldownStore(rdb, cfg.Redis.Prefix)
		deduper = redisStorage.NewEventDeduper(rdb, cfg.Redis.Prefix)
	} else if cfg.Gamble.CooldownLimit > 0 {
		log.Warn().Msg("gamble cooldown configured without Redis, ignoring")
	}

	// Initialize services
	auditSvc := service.NewAuditService(auditRepo, logger.Component(log, "audit"))
	ledgerSvc, err := service.NewLedgerService(ctx, ledgerRepo, logger.Component(log, "ledger"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load ledger")
	}

	// Discord session
	session, err := discord.NewSession(cfg.Discord.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}

	notifier := discord.NewAdminNotifier(session, logger.Component(log, "notifier"))
	commandSvc := service.NewCommandService(
		ledgerSvc,
		notifier,
		service.RandomCoin{},
		auditSvc,
		cooldownStore,
		service.CommandConfig{
			Prefix:         cfg.Discord.Prefix,
			CooldownLimit:  cfg.Gamble.CooldownLimit,
			CooldownWindow: cfg.Gamble.CooldownWindow,
		},
		logger.Component(log, "commands"),
	)

	bot := discord.NewBot(session, commandSvc, deduper, discord.Config{
		OwnerID:  cfg.Discord.OwnerID,
		DedupTTL: cfg.Discord.DedupTTL,
	}, logger.Component(log, "discord"))
	bot.AddHandlers(session)

	if err := session.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open Discord gateway")
	}
	defer session.Close()

	// Optional ops HTTP server
	var srv *http.Server
	if cfg.Server.Enabled {
		srv = startServer(cfg, httpHandler.RouterDeps{
			LedgerSvc:      ledgerSvc,
			RateLimitStore: cooldownStore,
			HealthCheckers: checkers,
			Mode:           cfg.Server.Mode,
			Logger:         logger.Component(log, "http"),
		}, log)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}

	log.Info().Msg("Bot exited")
}

func startServer(cfg *config.Config, deps httpHandler.RouterDeps, log zerolog.Logger) *http.Server {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           httpHandler.SetupRouter(deps),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()
	return srv
}
