package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"net"
	"strings"

	"github.com/coder/websocket"
	"github.com/marben/irpc"
	xdraw "golang.org/x/image/draw"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

// frameReadLimit bounds a single websocket message; a 4096x4096 frame is
// 64MiB of raw pixels.
const frameReadLimit = 80 << 20

// dialRemote connects to a server's irpc endpoint. ws:// and wss:// URLs go
// through the websocket route, anything else is a tcp address.
func dialRemote(ctx context.Context, addr string) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		c, _, err := websocket.Dial(ctx, addr, nil)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		c.SetReadLimit(frameReadLimit)
		// The connection outlives ctx, which only bounds the dial.
		return websocket.NetConn(context.Background(), c, websocket.MessageBinary), nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return conn, nil
}

// fetchImage asks the server behind conn for the frame of the shared view
// as it is now. conn is closed on return.
func fetchImage(ctx context.Context, conn io.ReadWriteCloser) (*image.RGBA, error) {
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()
	stop := context.AfterFunc(ctx, func() { ep.Close() })
	defer stop()

	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		return nil, fmt.Errorf("NewImgProviderIrpcClient: %w", err)
	}
	img, err := client.GetImage()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("GetImage: %w", context.Cause(ctx))
		}
		return nil, fmt.Errorf("GetImage: %w", err)
	}
	if len(img.Pix) < img.Stride*img.Rect.Dy() {
		return nil, fmt.Errorf("GetImage: %d bytes of pixels for %v", len(img.Pix), img.Rect)
	}
	return &img, nil
}

// renderLocal renders cfg on this machine. With ssaa > 1 every output pixel
// averages an ssaa×ssaa block, smoothing the escape boundary.
func renderLocal(cfg mandel.Config, region string, ssaa, workers int) (image.Image, error) {
	if ssaa < 1 {
		return nil, fmt.Errorf("ssaa must be at least 1, got %d", ssaa)
	}
	outW, outH := cfg.Width, cfg.Height
	cfg.Width *= ssaa
	cfg.Height *= ssaa
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	view := mandel.NewViewState(cfg)
	if region != "" {
		r, ok := mandel.RegionByName(region)
		if !ok {
			return nil, fmt.Errorf("unknown region %q", region)
		}
		view.Frame(r)
	}

	img := render.New(render.WithWorkers(workers)).Image(view)
	if ssaa == 1 {
		return img, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}
