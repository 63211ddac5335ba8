package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/irfathmostofa/hand-cricket-backend/internal/game"
	"github.com/irfathmostofa/hand-cricket-backend/internal/history"
	"github.com/irfathmostofa/hand-cricket-backend/internal/randutil"
	"github.com/irfathmostofa/hand-cricket-backend/internal/rooms"
	"github.com/irfathmostofa/hand-cricket-backend/internal/server"
)

var CLI struct {
	Config     string `short:"c" long:"config" default:"cricket-server.hcl" help:"Path to HCL configuration file"`
	Addr       string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel   string `short:"l" long:"log-level" help:"Log level (overrides config)"`
	Seed       int64  `short:"s" long:"seed" help:"Random seed for toss and fallback draws (overrides config)"`
	HistoryDir string `long:"history-dir" help:"Directory for completed match records (overrides config)"`
}

func main() {
	ctx := kong.Parse(&CLI)

	// Load configuration
	cfg, err := server.LoadServerConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		ctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.Addr != "" {
		cfg.Server.Address = CLI.Addr
	}
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if CLI.Seed != 0 {
		cfg.Server.Seed = CLI.Seed
	}
	if CLI.HistoryDir != "" {
		cfg.Server.HistoryDir = CLI.HistoryDir
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Separate generators: the registry draws room codes under its own
	// lock, the engine draws toss and fallback values under its own.
	engineRng := randutil.New(seed)
	codeRng := randutil.New(seed + 1)

	logger.Info("Starting Hand Cricket Server",
		"addr", cfg.GetServerAddress(),
		"overs", cfg.Match.Overs,
		"ballsPerOver", cfg.Match.BallsPerOver,
		"maxWickets", cfg.Match.MaxWickets)

	// Wire registry, WebSocket server and match engine together. The
	// server is the engine's broadcaster.
	registry := rooms.NewRegistry(codeRng, logger)
	wsServer := server.NewServer(cfg.GetServerAddress(), logger)
	engine := game.NewEngine(registry, wsServer, quartz.NewReal(), engineRng, logger,
		cfg.EngineTimings(), cfg.MatchConfig())
	wsServer.SetEngine(engine)
	if cfg.Server.HistoryDir != "" {
		engine.SetRecorder(history.NewArchiver(cfg.Server.HistoryDir, logger))
	}

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return wsServer.Start()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		return wsServer.Stop()
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited", "error", err)
		ctx.Exit(1)
	}
}
