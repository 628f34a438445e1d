package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"tradewire/internal/domain/model"
	"tradewire/internal/infrastructure/config"
	"tradewire/internal/infrastructure/logger"
	"tradewire/internal/infrastructure/svc"
	"tradewire/presentation"
)

func main() {
	logger.Setup("info")

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	board := flag.Bool("board", true, "render the live market board")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service initialization failed")
	}
	defer sc.Close()

	if err := sc.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("service start failed")
	}

	log.Info().
		Str("config", *configPath).
		Str("venue", cfg.Venue.Name).
		Int("symbols", len(cfg.Symbols.List)).
		Msg("tradewire started")

	if *board {
		renderBoard(ctx, sc)
	} else {
		<-ctx.Done()
	}

	log.Info().Msg("shutting down")
}

// renderBoard redraws the market board once a second until ctx is done.
func renderBoard(ctx context.Context, sc *svc.ServiceContext) {
	renderer := presentation.NewRenderer()
	symbols := sc.Config.Symbols.List

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case <-ticker.C:
			tickers := make(map[string]model.Ticker, len(symbols))
			signals := make(map[string]*model.Signal, len(symbols))
			for _, sym := range symbols {
				if tk, err := sc.Cache.Ticker(sym); err == nil {
					tickers[sym] = tk
				}
				if sig, ok := sc.Engine.Latest(sym); ok {
					signals[sym] = sig
				}
			}
			fmt.Print(renderer.RenderLine(symbols, tickers, signals, true))
		}
	}
}
