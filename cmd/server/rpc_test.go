package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_explorer"
)

func dialRPC(t *testing.T, ctx context.Context, wsURL string) *mandel.ImgProviderIrpcClient {
	t.Helper()
	c, _, err := websocket.Dial(ctx, strings.TrimSuffix(wsURL, "/ws")+"/irpc", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c.SetReadLimit(-1)
	ep := irpc.NewEndpoint(websocket.NetConn(context.Background(), c, websocket.MessageBinary))
	t.Cleanup(func() { ep.Close() })

	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		t.Fatalf("NewImgProviderIrpcClient: %v", err)
	}
	return client
}

func TestRPC_GetImageOverWebsocket(t *testing.T) {
	sess, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := dialRPC(t, ctx, url)
	img, err := client.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 48x32", b)
	}

	want, err := sess.GetImage()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(img.Pix, want.Pix) {
		t.Error("remote pixels differ from the session frame")
	}
}

func TestRPC_FollowsSharedView(t *testing.T) {
	sess, url := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := dialRPC(t, ctx, url)
	before, err := client.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}

	if err := sess.apply(mandel.ZoomIn); err != nil {
		t.Fatalf("apply: %v", err)
	}
	after, err := client.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if bytes.Equal(before.Pix, after.Pix) {
		t.Error("frame unchanged after zoom")
	}
}

func TestRPC_ServeTCP(t *testing.T) {
	sess, _ := newTestServer(t)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	rpcServer := newRPCServer(sess)
	go rpcServer.Serve(l)
	defer rpcServer.Close()

	conn, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	ep := irpc.NewEndpoint(conn)
	defer ep.Close()
	client, err := mandel.NewImgProviderIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	img, err := client.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("bounds = %v, want 48x32", b)
	}
}

func TestWSListener_CloseStopsAccept(t *testing.T) {
	l := newWSListener(context.Background(), "/irpc")
	done := make(chan error, 1)
	go func() {
		_, err := l.Accept()
		done <- err
	}()
	l.Close()

	select {
	case err := <-done:
		if err != net.ErrClosed {
			t.Errorf("Accept err = %v, want net.ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Accept did not return after Close")
	}
	if got := l.Addr().String(); got != "/irpc" {
		t.Errorf("Addr = %q", got)
	}
}
