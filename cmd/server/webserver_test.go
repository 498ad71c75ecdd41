package main

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_explorer"
	"github.com/marben/mandel_explorer/render"
)

func newTestServer(t *testing.T) (*session, string) {
	t.Helper()
	cfg := mandel.DefaultConfig()
	cfg.Width, cfg.Height = 48, 32
	cfg.MaxIterations = 32
	sess := newSession(cfg, render.New(render.WithWorkers(2)))

	wsl := newWSListener(context.Background(), "/irpc")
	rpcServer := newRPCServer(sess)
	go rpcServer.Serve(wsl)
	t.Cleanup(func() { rpcServer.Close() })

	srv := httptest.NewServer(webServer("", t.TempDir(), sess, nil, wsl).Handler)
	t.Cleanup(srv.Close)
	return sess, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	c.SetReadLimit(1 << 24)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

// readFrame reads one status message and, unless it reports an error, the
// PNG frame that follows it.
func readFrame(t *testing.T, ctx context.Context, c *websocket.Conn) (status, []byte) {
	t.Helper()
	var st status
	if err := wsjson.Read(ctx, c, &st); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if st.Error != "" {
		return st, nil
	}
	typ, data, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("frame message type = %v, want binary", typ)
	}
	return st, data
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestServer_InitialFrame(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	c := dial(t, ctx, url)

	st, data := readFrame(t, ctx, c)

	if st.Width != 48 || st.Height != 32 || st.Zoom != 3 || st.Re != -0.5 || st.MaxIter != 32 {
		t.Errorf("status = %+v", st)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("frame bounds = %v, want 48x32", b)
	}
}

func TestServer_CommandIsBroadcast(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	a := dial(t, ctx, url)
	readFrame(t, ctx, a)
	b := dial(t, ctx, url)
	readFrame(t, ctx, b)

	if err := wsjson.Write(ctx, a, clientMsg{Cmd: "zoom-in"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, c := range map[string]*websocket.Conn{"sender": a, "other": b} {
		st, _ := readFrame(t, ctx, c)
		if st.Zoom != 1.5 {
			t.Errorf("%s: zoom = %v, want 1.5", name, st.Zoom)
		}
		if st.Viewers != 2 {
			t.Errorf("%s: viewers = %d, want 2", name, st.Viewers)
		}
	}
}

func TestServer_Resize(t *testing.T) {
	sess, url := newTestServer(t)
	ctx := testContext(t)
	c := dial(t, ctx, url)
	readFrame(t, ctx, c)

	if err := wsjson.Write(ctx, c, clientMsg{Cmd: "resize", Width: 20, Height: 10}); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, data := readFrame(t, ctx, c)

	if st.Width != 20 || st.Height != 10 {
		t.Errorf("status size = %dx%d, want 20x10", st.Width, st.Height)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("frame bounds = %v, want 20x10", b)
	}

	got, err := sess.GetImage()
	if err != nil {
		t.Fatalf("GetImage: %v", err)
	}
	if got.Bounds() != img.Bounds() || len(got.Pix) != 20*10*4 {
		t.Errorf("GetImage bounds %v with %d bytes, want %v with %d", got.Bounds(), len(got.Pix), img.Bounds(), 20*10*4)
	}
}

func TestServer_BadMessages(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	c := dial(t, ctx, url)
	readFrame(t, ctx, c)

	for _, msg := range []clientMsg{
		{Cmd: "explode"},
		{Cmd: "resize", Width: 0, Height: 10},
		{Cmd: "resize", Width: maxViewport + 1, Height: 10},
	} {
		if err := wsjson.Write(ctx, c, msg); err != nil {
			t.Fatalf("write: %v", err)
		}
		st, data := readFrame(t, ctx, c)
		if st.Error == "" || data != nil {
			t.Errorf("%+v: status = %+v, want error reply", msg, st)
		}
	}
}

func TestServer_MalformedMessagesKeepConnection(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	c := dial(t, ctx, url)
	readFrame(t, ctx, c)

	for _, m := range []struct {
		typ  websocket.MessageType
		data string
	}{
		{websocket.MessageText, "{not json"},
		{websocket.MessageText, `{"cmd": 7}`},
		{websocket.MessageBinary, `{"cmd":"zoom-in"}`},
	} {
		if err := c.Write(ctx, m.typ, []byte(m.data)); err != nil {
			t.Fatalf("write %q: %v", m.data, err)
		}
		st, data := readFrame(t, ctx, c)
		if st.Error == "" || data != nil {
			t.Errorf("%q: status = %+v, want error reply", m.data, st)
		}
	}

	// The connection still serves commands.
	if err := wsjson.Write(ctx, c, clientMsg{Cmd: "zoom-in"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, data := readFrame(t, ctx, c)
	if st.Error != "" || data == nil || st.Zoom != 1.5 {
		t.Errorf("after bad messages: status = %+v, frame %d bytes", st, len(data))
	}
}

func TestViewer_ErrorKeepsQueuedFrame(t *testing.T) {
	v := newViewer()
	v.send(frame{status: status{Zoom: 1.5}, png: []byte{1}})
	v.sendError(errors.New("bad"))

	select {
	case f := <-v.out:
		if f.png == nil || f.status.Zoom != 1.5 || f.status.Error != "" {
			t.Errorf("queued frame = %+v, want the zoom 1.5 frame", f)
		}
	default:
		t.Fatal("frame was evicted by the error reply")
	}
	select {
	case msg := <-v.errs:
		if msg != "bad" {
			t.Errorf("error reply = %q, want %q", msg, "bad")
		}
	default:
		t.Fatal("error reply was lost")
	}
}

func TestViewer_LatestFrameWins(t *testing.T) {
	v := newViewer()
	v.send(frame{status: status{Zoom: 3}, png: []byte{1}})
	v.send(frame{status: status{Zoom: 1.5}, png: []byte{2}})

	if f := <-v.out; f.status.Zoom != 1.5 {
		t.Errorf("queued zoom = %v, want 1.5", f.status.Zoom)
	}
	select {
	case f := <-v.out:
		t.Errorf("extra frame queued: %+v", f.status)
	default:
	}
}

func TestServer_SnapshotAnswersRequesterOnly(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	a := dial(t, ctx, url)
	readFrame(t, ctx, a)
	b := dial(t, ctx, url)
	readFrame(t, ctx, b)

	if err := wsjson.Write(ctx, a, clientMsg{Cmd: "snapshot"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	st, data := readFrame(t, ctx, a)
	if st.Zoom != 3 || len(data) == 0 {
		t.Errorf("snapshot status = %+v, %d bytes", st, len(data))
	}

	short, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	var extra status
	err := wsjson.Read(short, b, &extra)
	if err == nil {
		t.Errorf("other viewer received %+v, want nothing", extra)
	} else if !errors.Is(err, context.DeadlineExceeded) {
		t.Logf("read ended with %v", err)
	}
}

func TestServer_Quit(t *testing.T) {
	_, url := newTestServer(t)
	ctx := testContext(t)
	c := dial(t, ctx, url)
	readFrame(t, ctx, c)

	if err := wsjson.Write(ctx, c, clientMsg{Cmd: "quit"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, _, err := c.Read(ctx)
	if got := websocket.CloseStatus(err); got != websocket.StatusNormalClosure {
		t.Errorf("close status = %v (err %v), want normal closure", got, err)
	}
}

func TestSession_RendersOnlyWhenDirty(t *testing.T) {
	cfg := mandel.DefaultConfig()
	cfg.Width, cfg.Height = 16, 16
	cfg.MaxIterations = 16
	engine := render.New()
	sess := newSession(cfg, engine)

	if _, err := sess.current(); err != nil {
		t.Fatal(err)
	}
	if _, err := sess.current(); err != nil {
		t.Fatal(err)
	}
	if engine.Recomputes() != 1 {
		t.Errorf("Recomputes() = %d, want 1", engine.Recomputes())
	}

	if err := sess.apply(mandel.PanLeft); err != nil {
		t.Fatal(err)
	}
	if engine.Recomputes() != 2 {
		t.Errorf("Recomputes() = %d, want 2", engine.Recomputes())
	}
	if err := sess.apply(mandel.Quit); !errors.Is(err, mandel.ErrUnknownCommand) {
		t.Errorf("apply(quit) = %v, want ErrUnknownCommand", err)
	}
}
