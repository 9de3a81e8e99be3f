package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/synthmarket/marketsim/internal/config"
	"github.com/synthmarket/marketsim/internal/engine"
	"github.com/synthmarket/marketsim/internal/handler"
	"github.com/synthmarket/marketsim/internal/service"
	"github.com/synthmarket/marketsim/internal/sim"
)

func main() {
	serve := flag.Bool("serve", false, "Serve session results over HTTP after the run")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	session := service.NewSession(sim.Options{
		Symbol:       cfg.Symbol,
		InitialPrice: cfg.InitialPrice,
		Seed:         cfg.Seed,
		Policy:       sim.Policy(cfg.Policy),
		SelfMatch:    engine.SelfMatchPolicy(cfg.SelfMatch),
		TicksPerBar:  cfg.TicksPerBar,
		Micro: sim.Microstructure{
			BaseSpreadBps: cfg.BaseSpreadBps,
			DepthAtTouch:  cfg.DepthAtTouch,
			DepthFalloff:  cfg.DepthFalloff,
			TickSize:      cfg.TickSize,
			LotSize:       cfg.LotSize,
		},
		Logger: logger,
	})

	logger.Info("run starting",
		slog.String("run_id", session.RunID()),
		slog.String("symbol", cfg.Symbol),
		slog.String("policy", cfg.Policy),
		slog.Uint64("seed", cfg.Seed),
		slog.Int("bars", cfg.NumBars),
	)

	bars := session.Run(cfg.NumBars)
	status := session.Status()

	logger.Info("run complete",
		slog.String("run_id", session.RunID()),
		slog.Int("bars", len(bars)),
		slog.Int("trades", status.Trades),
		slog.Uint64("ticks", status.Ticks),
		slog.Float64("final_price", status.MidPrice),
		slog.Float64("spread_bps", status.SpreadBps),
	)

	stats := session.TraderStats()
	for archetype, entry := range stats.ByArchetype {
		logger.Info("trader cohort",
			slog.String("archetype", string(archetype)),
			slog.Int("count", entry.Count),
			slog.Float64("capital", entry.TotalCapital),
			slog.Int("trades", entry.TotalTrades),
		)
	}

	if !*serve {
		return
	}

	// Serve the session's results read-only.
	router := handler.NewRouter(session, logger)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}
