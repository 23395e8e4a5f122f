package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"github.com/spf13/pflag"

	"LocalSketch/internal/board"
	"LocalSketch/internal/config"
	"LocalSketch/internal/flags"
	livenet "LocalSketch/internal/net"
	"LocalSketch/internal/raster"
	"LocalSketch/internal/ui"
)

const frameInterval = 200 * time.Millisecond

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)
	raster.SetLogger(logger)

	if cfg.Discover {
		runDiscover(logger)
		return
	}
	runHost(cfg, logger)
}

func runDiscover(logger *slog.Logger) {
	logger.Info("looking for live views")
	err := livenet.Browse(3*time.Second, func(addr string) {
		fmt.Printf("http://%s/\n", addr)
	})
	if err != nil {
		logger.Error("discovery failed", "error", err)
		os.Exit(1)
	}
}

func runHost(cfg config.Config, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	provider := flags.NewProvider(cfg.Flags.URL, time.Duration(cfg.Flags.Timeout), logger.With("component", "flags"))
	surface := board.NewDrawingSurface(
		board.WithLogger(logger.With("component", "board")),
		board.WithScheduler(fyne.Do),
		board.WithFetcher(provider),
	)
	defer surface.Close()

	opts := ui.Options{
		CanvasSize: fyne.NewSize(float32(cfg.Canvas.Width), float32(cfg.Canvas.Height)),
		Flags:      provider,
		ExportDir:  cfg.Export.Dir,
		Logger:     logger.With("component", "ui"),
	}

	var shareURL string
	if cfg.Live.Enabled {
		notify := make(chan struct{}, 1)
		opts.OnChange = func() { livenet.Notify(notify) }
		shareURL = startLive(ctx, cfg.Live.Port, surface, notify, logger.With("component", "live"))
	}

	ui.RunApp(surface, opts, func(b *ui.Board) {
		if shareURL != "" {
			b.SetStatus("Live view at " + shareURL)
		}
		go func() {
			provider.Load(ctx)
			countries := provider.Countries()
			fyne.Do(func() { b.SetCountries(countries) })
		}()
	})
}

// startLive serves the read-only live view and advertises it. Failures are
// logged; the sketchpad keeps working without it.
func startLive(ctx context.Context, port int, surface *board.DrawingSurface, notify chan struct{}, logger *slog.Logger) string {
	hub := livenet.NewHub(logger)
	go hub.Feed(ctx, notify, frameInterval, surface.ExportImage)
	go func() {
		if err := hub.ListenAndServe(ctx, port); err != nil {
			logger.Error("live view stopped", "error", err)
		}
	}()

	server, err := livenet.Advertise(port)
	if err != nil {
		logger.Warn("mDNS advertisement unavailable", "error", err)
	} else {
		go func() {
			<-ctx.Done()
			_ = server.Shutdown()
		}()
	}

	ip, err := livenet.OutgoingIP()
	if err != nil {
		logger.Warn("could not determine local address", "error", err)
		ip = "localhost"
	}
	url := livenet.ShareURL(ip, port)
	logger.Info("live view enabled", "url", url)
	return url
}
