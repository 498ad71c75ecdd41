// cliclient saves a Mandelbrot frame as PNG. With -remote it asks a running
// server for the shared view over irpc; otherwise it renders locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"time"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run obtains one frame, locally or from the server, and saves it as a PNG file.
func run() error {
	cfg := mandel.DefaultConfig()
	cfg.RegisterFlags(flag.CommandLine)
	remote := flag.String("remote", "", "server irpc address: ws://localhost:8080/irpc or a tcp host:port such as localhost:8081")
	region := flag.String("region", "", "frame a landmark (seahorse, elephant, spiral, triple, dragon, minibrot)")
	ssaa := flag.Int("ssaa", 1, "supersampling factor for local renders")
	workers := flag.Int("workers", 0, "recompute parallelism (0 = GOMAXPROCS)")
	out := flag.String("o", "mandel.png", "output file")
	timeout := flag.Duration("timeout", 30*time.Second, "remote fetch timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var img image.Image
	if *remote != "" {
		log.Printf("Requesting current frame from %s...", *remote)
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		defer cancel()
		conn, err := dialRemote(ctx, *remote)
		if err != nil {
			return err
		}
		start := time.Now()
		rgba, err := fetchImage(ctx, conn)
		if err != nil {
			return err
		}
		log.Printf("Got %dx%d frame in %s", rgba.Rect.Dx(), rgba.Rect.Dy(), time.Since(start))
		img = rgba
	} else {
		start := time.Now()
		var err error
		img, err = renderLocal(cfg, *region, *ssaa, *workers)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		log.Printf("Rendered %dx%d in %s", img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start))
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := render.EncodePNG(f, img); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	log.Printf("Frame saved to %q", *out)
	return nil
}
