// termview explores the Mandelbrot set inside a terminal, using half-block
// characters so that every cell shows two greyscale pixels.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gdamore/tcell/v2"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	cfg := mandel.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	workers := flag.Int("workers", 0, "recompute parallelism (0 = GOMAXPROCS)")
	logFile := flag.String("log", "", "write logs to this file (the terminal is busy drawing)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		mandel.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("tcell.NewScreen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen.Init: %w", err)
	}
	defer screen.Fini()
	screen.HideCursor()

	tv := newTermView(screen, mandel.NewViewState(cfg), render.New(render.WithWorkers(*workers)))
	return tv.loop()
}
