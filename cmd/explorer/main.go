// explorer opens a desktop window showing the Mandelbrot set.
// W/A/S/D or the arrow keys pan, R/F zoom, Z resets, 1-6 jump to landmarks,
// P saves a screenshot, H toggles the status overlay and Esc/Q quits.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

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
	screenshot := flag.String("screenshot", "mandel.png", "file written by the P key")
	verbose := flag.Bool("v", false, "log every recompute")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	g := newExplorer(cfg, render.New(render.WithWorkers(*workers)), *screenshot)

	ebiten.SetWindowTitle("Mandelbrot")
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)

	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
