// server hosts one shared Mandelbrot exploration over websockets. Every
// connected viewer can pan and zoom; each change is rendered once and the
// PNG frame is pushed to all viewers. irpc clients can fetch the current
// frame over /irpc or plain tcp.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

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
	cfg.Width, cfg.Height = 960, 540
	cfg.RegisterFlags(flag.CommandLine)
	addr := flag.String("addr", ":8080", "http listen address")
	rpcAddr := flag.String("rpc", ":8081", "tcp listen address for irpc clients (empty disables)")
	staticDir := flag.String("static", "./static", "directory with index.html, wasm_exec.js and main.wasm")
	origins := flag.String("origins", "", "comma separated extra origin patterns allowed to open websockets")
	region := flag.String("region", "", "start framed on a landmark (seahorse, elephant, spiral, triple, dragon, minibrot)")
	workers := flag.Int("workers", 0, "recompute parallelism (0 = GOMAXPROCS)")
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

	sess := newSession(cfg, render.New(render.WithWorkers(*workers)))
	if *region != "" {
		r, ok := mandel.RegionByName(*region)
		if !ok {
			return fmt.Errorf("unknown region %q", *region)
		}
		sess.view.Frame(r)
	}

	var originPatterns []string
	if *origins != "" {
		originPatterns = strings.Split(*origins, ",")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// irpc clients reach the session's ImgProvider over websockets on /irpc
	// and, unless disabled, over plain tcp.
	rpcServer := newRPCServer(sess)
	wsl := newWSListener(ctx, *addr+"/irpc")
	srv := webServer(*addr, *staticDir, sess, originPatterns, wsl)

	errc := make(chan error, 3)
	go func() {
		log.Printf("listening on http://localhost%s", *addr)
		errc <- fmt.Errorf("httpServer: %w", srv.ListenAndServe())
	}()
	go func() {
		errc <- fmt.Errorf("rpcServer.Serve ws: %w", rpcServer.Serve(wsl))
	}()
	if *rpcAddr != "" {
		tcpListener, err := net.Listen("tcp", *rpcAddr)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}
		log.Printf("irpc listening on tcp %s", *rpcAddr)
		go func() {
			errc <- fmt.Errorf("rpcServer.Serve tcp: %w", rpcServer.Serve(tcpListener))
		}()
	}

	select {
	case err := <-errc:
		rpcServer.Close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rpcServer.Close(); err != nil {
		mandel.Logger().Warn("rpc shutdown", "err", err)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
