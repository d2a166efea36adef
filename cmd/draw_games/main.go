package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof" // Register pprof handlers
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frankieli/draw_games/internal/config"
	drawLocal "github.com/frankieli/draw_games/internal/modules/draw_game/adapter/local"
	"github.com/frankieli/draw_games/internal/modules/draw_game/domain"
	"github.com/frankieli/draw_games/internal/modules/draw_game/machine"
	"github.com/frankieli/draw_games/internal/modules/draw_game/payout"
	"github.com/frankieli/draw_games/internal/modules/draw_game/registry"
	drawDB "github.com/frankieli/draw_games/internal/modules/draw_game/repository/db"
	drawMemory "github.com/frankieli/draw_games/internal/modules/draw_game/repository/memory"
	drawRedis "github.com/frankieli/draw_games/internal/modules/draw_game/repository/redis"
	"github.com/frankieli/draw_games/internal/modules/draw_game/result"
	"github.com/frankieli/draw_games/internal/modules/draw_game/roundid"
	drawUseCase "github.com/frankieli/draw_games/internal/modules/draw_game/usecase"
	gatewayHttp "github.com/frankieli/draw_games/internal/modules/gateway/adapter/http"
	gatewayLocal "github.com/frankieli/draw_games/internal/modules/gateway/adapter/local"
	gatewayUseCase "github.com/frankieli/draw_games/internal/modules/gateway/usecase"
	"github.com/frankieli/draw_games/internal/modules/gateway/ws"
	"github.com/frankieli/draw_games/internal/modules/wallet"
	"github.com/frankieli/draw_games/pkg/logger"
	"github.com/frankieli/draw_games/pkg/metrics"
)

func main() {
	// Parse command line flags
	pprofPort := flag.String("pprof-port", "", "Port to run pprof server on (e.g., 6060)")
	background := flag.Bool("d", false, "Run in background mode (disable console logging)")
	flag.Parse()

	// 1. Load Config
	cfg := config.Load()

	if cfg.Log.File != "" {
		logger.InitWithFile(logger.FileConfig{
			Filename:      cfg.Log.File,
			EnableConsole: !*background,
		}, cfg.Log.Level, cfg.Log.Format, cfg.Log.Async)
	} else {
		logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Async: cfg.Log.Async})
	}
	defer logger.Close()

	if *pprofPort != "" {
		go func() {
			addr := "localhost:" + *pprofPort
			logger.InfoGlobal().Str("addr", addr).Msg("📈 Starting pprof server")
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.ErrorGlobal().Err(err).Msg("Failed to start pprof server")
			}
		}()
	}

	logger.InfoGlobal().Str("name", cfg.Server.Name).Msg("🎮 Starting Draw Games...")

	if err := cfg.DrawGame.Validate(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Invalid draw game config")
	}

	// 2. Catalogue
	if err := domain.InitBetIDs(cfg.DrawGame.NodeID); err != nil {
		logger.FatalGlobal().Err(err).Msg("Invalid snowflake node id")
	}
	specs, err := domain.SelectGames(domain.Catalogue(), cfg.DrawGame.Games)
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Invalid DRAW_GAMES")
	}
	if cfg.DrawGame.OverrideSettlement {
		if specs, err = domain.OverrideSettlement(specs, cfg.DrawGame.SettleAtIntake); err != nil {
			logger.FatalGlobal().Err(err).Msg("Invalid DRAW_SETTLE_AT_INTAKE")
		}
	}
	for _, spec := range specs {
		logger.InfoGlobal().
			Str("game", string(spec.Game)).
			Int("modes", len(spec.Modes)).
			Str("settlement", spec.Settlement.String()).
			Msg("🎲 Game enabled")
	}

	// 3. Initialize Infrastructure
	var db *gorm.DB
	if cfg.DrawGame.StoreType != config.StoreMemory || cfg.DrawGame.SequenceType == config.SequenceDB {
		db = openDatabase(cfg)
		sqlDB, err := db.DB()
		if err != nil {
			logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
		}
		defer sqlDB.Close()
	}

	var store domain.RoundStore
	switch cfg.DrawGame.StoreType {
	case config.StorePostgres, config.StoreSQLite:
		store = drawDB.NewRoundRepository(db)
		logger.InfoGlobal().Str("type", cfg.DrawGame.StoreType).Msg("  ✅ Round store: Database")
	default:
		store = drawMemory.NewRoundRepository()
		logger.InfoGlobal().Msg("  ✅ Round store: Memory")
	}

	var seq roundid.Sequence
	switch cfg.DrawGame.SequenceType {
	case config.SequenceRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.FatalGlobal().Err(err).Str("addr", cfg.Redis.Addr()).Msg("Failed to connect to redis")
		}
		seq = drawRedis.NewSequence(rdb)
		logger.InfoGlobal().Msg("  ✅ Round sequence: Redis")
	case config.SequenceDB:
		seq = drawDB.NewSequence(db)
		logger.InfoGlobal().Msg("  ✅ Round sequence: Database")
	default:
		seq = roundid.NewMemorySequence()
		logger.InfoGlobal().Msg("  ✅ Round sequence: Memory")
	}

	var src result.Source
	if cfg.DrawGame.RandomSeed > 0 {
		src = result.NewSeededSource(cfg.DrawGame.RandomSeed)
		logger.WarnGlobal().Int64("seed", cfg.DrawGame.RandomSeed).Msg("⚠️ Draws are reproducible (seeded source)")
	} else {
		src = result.NewCryptoSource()
	}
	if cfg.DrawGame.BlockSecret != "" {
		logger.WarnGlobal().Msg("⚠️ TRX_BLOCK_SECRET is set; anyone holding it can compute trx outcomes from published block numbers")
	}
	generator := result.NewGenerator(src, result.NewPseudoBlockSource(cfg.DrawGame.BlockSecret, time.Now().Unix()))

	// 4. Initialize Modules
	m := metrics.NewDefault()
	reg := registry.New(specs)
	evaluator := payout.NewEvaluator()
	ledger := wallet.NewMemoryLedger(decimal.NewFromInt(cfg.DrawGame.DefaultBalance))

	wsManager := ws.NewManager(m)
	wsManager.PingInterval = cfg.Gateway.WebSocket.PingInterval
	wsManager.WriteWait = cfg.Gateway.WebSocket.WriteWait
	wsManager.PongWait = cfg.Gateway.WebSocket.PongWait
	wsManager.MaxMessageSize = cfg.Gateway.WebSocket.MaxMessageSize
	broadcaster := gatewayLocal.NewBroadcaster(wsManager)

	scheduler := machine.NewScheduler(machine.Deps{
		Registry:  reg,
		IDs:       roundid.NewAllocator(seq, store),
		Generator: generator,
		Evaluator: evaluator,
		Store:     store,
		Ledger:    ledger,
		Notifier:  broadcaster,
		Metrics:   m,
	})
	scheduler.TickInterval = cfg.DrawGame.TickInterval
	scheduler.DrainTimeout = cfg.DrawGame.DrainTimeout

	intakeUC := drawUseCase.NewIntakeUseCase(reg, evaluator, ledger, m)
	drawGameSvc := drawLocal.NewHandler(intakeUC)
	gatewayUC := gatewayUseCase.NewGatewayUseCase(drawGameSvc, wsManager)
	gatewayHttpHandler := gatewayHttp.NewHandler(gatewayUC, wsManager)
	logger.InfoGlobal().Msg("✅ Modules initialized")

	// 5. Setup HTTP Server
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.GinMiddleware("/metrics", "/healthz"))

	router.GET("/ws", func(c *gin.Context) {
		gatewayHttpHandler.HandleWebSocket(c.Writer, c.Request)
	})
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "modes": len(reg.Keys())})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: router,
	}

	// 6. Run until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	// The manager outlives the scheduler so drained results still reach players
	managerCtx, stopManager := context.WithCancel(context.Background())
	defer stopManager()
	g.Go(func() error {
		return wsManager.Run(managerCtx)
	})

	if err := scheduler.StartAll(gctx); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to start schedulers")
	}

	g.Go(func() error {
		logger.InfoGlobal().
			Str("addr", srv.Addr).
			Str("ws_url", fmt.Sprintf("ws://localhost:%s/ws?user_id=YOUR_ID", cfg.Server.HTTPPort)).
			Msg("🚀 Draw Games running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.InfoGlobal().Msg("🛑 Shutting down...")

		// 6.1 Stop accepting new connections and bets
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.ErrorGlobal().Err(err).Msg("HTTP server forced to shutdown")
		}

		// 6.2 Settle the open rounds
		logger.InfoGlobal().Msg("⏳ Draining open rounds...")
		scheduler.Wait()

		// 6.3 Close all WebSocket connections
		logger.InfoGlobal().Msg("🔌 Closing all WebSocket connections...")
		stopManager()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.ErrorGlobal().Err(err).Msg("Draw Games stopped with error")
		return
	}
	logger.InfoGlobal().Msg("👋 Server exited properly")
}

// openDatabase connects gorm to the configured backend and migrates the draw tables
func openDatabase(cfg *config.AppConfig) *gorm.DB {
	gormLog := logger.NewGormLogger()
	gormLog.LogLevel = gormlogger.Warn

	var dialector gorm.Dialector
	if cfg.DrawGame.StoreType == config.StoreSQLite {
		dialector = sqlite.Open(cfg.Database.SQLitePath)
	} else {
		dialector = postgres.Open(cfg.Database.PostgresDSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to get database instance")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to ping database")
	}
	if err := drawDB.AutoMigrate(db); err != nil {
		logger.FatalGlobal().Err(err).Msg("Failed to migrate draw tables")
	}
	logger.InfoGlobal().Str("dialect", db.Dialector.Name()).Msg("✅ Database connected")
	return db
}
