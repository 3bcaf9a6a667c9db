package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/skatclub/skat-server-go/internal/config"
	"github.com/skatclub/skat-server-go/internal/game"
	"github.com/skatclub/skat-server-go/internal/game/cards"
	"github.com/skatclub/skat-server-go/internal/repository"
	"github.com/skatclub/skat-server-go/internal/server"
	"github.com/skatclub/skat-server-go/internal/session"
	"github.com/skatclub/skat-server-go/internal/tournament"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting Skat server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sessionOpts := []session.ManagerOption{
		session.WithMaxTables(cfg.Server.MaxTables),
		session.WithReplayDir(cfg.Game.ReplayDir),
	}
	if seed := cfg.Game.Seed; seed != 0 {
		logger.Warn("deals are seeded and reproducible", zap.Uint64("seed", seed))
		var tables atomic.Uint64
		sessionOpts = append(sessionOpts, session.WithTableOptions(func() []game.Option {
			return []game.Option{game.WithRandom(cards.NewSeededSource(seed + tables.Add(1)))}
		}))
	}

	// Initialize database
	if cfg.Database.Enabled {
		db, err := repository.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		stats := db.Stats()
		logger.Info("database connection pool initialized",
			zap.Int32("total_conns", stats.TotalConns()),
			zap.Int32("idle_conns", stats.IdleConns()),
		)

		rounds := repository.NewRoundRepository(db, logger)
		if err := rounds.EnsureSchema(ctx); err != nil {
			logger.Fatal("failed to prepare schema", zap.Error(err))
		}
		sessionOpts = append(sessionOpts, session.WithResultSink(rounds))
	} else {
		logger.Warn("database disabled; rounds are not persisted")
	}

	// Initialize tournament manager
	tournamentMgr := tournament.NewManager(logger)
	if name := cfg.Game.TournamentName; name != "" {
		list := tournamentMgr.CreateTournament(name)
		if err := list.Start(); err != nil {
			logger.Fatal("failed to start tournament", zap.Error(err))
		}
		if err := tournamentMgr.SetDefault(list.ID); err != nil {
			logger.Fatal("failed to select tournament", zap.Error(err))
		}
		sessionOpts = append(sessionOpts, session.WithResultSink(tournamentMgr))
	}
	logger.Info("tournament manager initialized")

	// Initialize session manager
	sessionMgr := session.NewManager(cfg.Server.LeasePeriod, logger, sessionOpts...)
	logger.Info("session manager initialized",
		zap.Duration("lease_period", cfg.Server.LeasePeriod),
		zap.Int("max_tables", cfg.Server.MaxTables),
	)

	// Start session cleanup goroutine
	go sessionMgr.CleanupExpiredSessions(ctx)

	grpcServer, healthSrv := server.NewGRPCServer(cfg.Server.GRPC, logger)
	go server.ReportTableCapacity(ctx, healthSrv, sessionMgr, cfg.Server.MaxTables, 5*time.Second)

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	g, gctx := errgroup.WithContext(ctx)

	// Start gRPC server
	g.Go(func() error {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		return grpcServer.Serve(lis)
	})

	// Start WebSocket server
	g.Go(func() error {
		return server.StartWebSocketServer(gctx, cfg.Server.WebSocket, sessionMgr, tournamentMgr, logger)
	})

	logger.Info("Skat server initialized",
		zap.String("version", version),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
	)

	// Wait for a termination signal or a failed server
	g.Go(func() error {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		case <-gctx.Done():
		}

		logger.Info("shutting down gracefully...")
		healthSrv.Shutdown()
		cancel()

		// Close all tables; their round logs are archived
		sessionMgr.CloseAll()

		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", zap.Error(err))
	}

	logger.Info("Skat server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
