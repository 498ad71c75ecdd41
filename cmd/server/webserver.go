package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_explorer"
)

// clientMsg is a command sent by a viewer as a JSON text message.
type clientMsg struct {
	Cmd    string `json:"cmd"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

const (
	cmdResize   = "resize"
	cmdSnapshot = "snapshot"
)

// webServer serves the files in staticDir, the websocket endpoint of the
// shared session on /ws and irpc connections on /irpc, which are handed to
// rpc.
func webServer(addr, staticDir string, sess *session, origins []string, rpc *wsListener) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", websocketHandler(sess, origins))
	mux.HandleFunc("/irpc", rpcHandler(rpc, origins))
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// websocketHandler upgrades the request and serves one viewer until it
// disconnects.
func websocketHandler(sess *session, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		err = serveViewer(r.Context(), sess, c)
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			mandel.Logger().Warn("viewer disconnected", "remote", r.RemoteAddr, "err", err)
		}
	}
}

// viewer is one connected websocket client. Frames are queued with latest
// wins semantics so a slow client never blocks the session. Error replies
// have their own queue and never displace a frame.
type viewer struct {
	out  chan frame
	errs chan string
}

func newViewer() *viewer {
	return &viewer{
		out:  make(chan frame, 1),
		errs: make(chan string, 4),
	}
}

func (v *viewer) send(f frame) {
	for {
		select {
		case v.out <- f:
			return
		default:
		}
		select {
		case <-v.out:
			mandel.Logger().Warn("frame dropped for slow viewer")
		default:
		}
	}
}

// sendError queues an error reply. A client flooding bad messages loses
// the replies that do not fit.
func (v *viewer) sendError(err error) {
	select {
	case v.errs <- err.Error():
	default:
		mandel.Logger().Warn("error reply dropped for slow viewer", "err", err)
	}
}

// writeLoop sends each queued frame as a status text message followed by
// the PNG as a binary message. Error replies are a status text message only.
func (v *viewer) writeLoop(ctx context.Context, c *websocket.Conn) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-v.errs:
			if err := wsjson.Write(ctx, c, status{Error: msg}); err != nil {
				return fmt.Errorf("write error status: %w", err)
			}
		case f := <-v.out:
			if err := wsjson.Write(ctx, c, f.status); err != nil {
				return fmt.Errorf("write status: %w", err)
			}
			if err := c.Write(ctx, websocket.MessageBinary, f.png); err != nil {
				return fmt.Errorf("write frame: %w", err)
			}
		}
	}
}

func serveViewer(ctx context.Context, sess *session, c *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := newViewer()
	mandel.Logger().Info("viewer joined", "viewers", sess.join(v))
	defer func() {
		mandel.Logger().Info("viewer left", "viewers", sess.leave(v))
	}()

	f, err := sess.current()
	if err != nil {
		return err
	}
	v.send(f)

	writeErr := make(chan error, 1)
	go func() { writeErr <- v.writeLoop(ctx, c) }()

	for {
		typ, data, err := c.Read(ctx)
		if err != nil {
			select {
			case werr := <-writeErr:
				return werr
			default:
				return err
			}
		}

		msg, err := decodeClientMsg(typ, data)
		if err != nil {
			mandel.Logger().Warn("malformed viewer message", "err", err)
			v.sendError(err)
			continue
		}

		quit, err := handle(sess, v, msg)
		if quit {
			return c.Close(websocket.StatusNormalClosure, "bye")
		}
		if err != nil {
			mandel.Logger().Warn("bad viewer message", "cmd", msg.Cmd, "err", err)
			v.sendError(err)
		}
	}
}

// decodeClientMsg parses one text message. A message that is not JSON is
// answered like any other bad command instead of closing the connection.
func decodeClientMsg(typ websocket.MessageType, data []byte) (clientMsg, error) {
	var msg clientMsg
	if typ != websocket.MessageText {
		return msg, fmt.Errorf("expected text message, got %v", typ)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	return msg, nil
}

// handle applies one client message. Mutations reach every viewer through
// the session; a snapshot request is answered to the requester only.
func handle(sess *session, v *viewer, msg clientMsg) (quit bool, err error) {
	switch msg.Cmd {
	case cmdResize:
		return false, sess.resize(msg.Width, msg.Height)
	case cmdSnapshot:
		f, err := sess.current()
		if err != nil {
			return false, err
		}
		v.send(f)
		return false, nil
	}

	cmd, err := mandel.ParseCommand(msg.Cmd)
	if err != nil {
		return false, err
	}
	if cmd == mandel.Quit {
		return true, nil
	}
	return false, sess.apply(cmd)
}
