package main

import (
	"context"
	"log"
	"net"
	"net/http"

	"github.com/coder/websocket"
	"github.com/marben/irpc"

	mandel "github.com/marben/mandel_explorer"
)

// newRPCServer serves the session as a mandel.ImgProvider to irpc clients.
func newRPCServer(sess *session) *irpc.Server {
	return irpc.NewServer(
		irpc.WithServices(mandel.NewImgProviderIrpcService(sess)),
		irpc.WithOnConnect(func(ep *irpc.Endpoint) {
			mandel.Logger().Info("rpc client connected", "remote", ep.RemoteAddr())
		}),
	)
}

// rpcHandler upgrades the request and hands the websocket to l, where the
// irpc server accepts it as a net.Conn.
func rpcHandler(l *wsListener, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Println(err)
			return
		}

		select {
		case l.ch <- wsConn{c: c, remote: r.RemoteAddr}:
		case <-l.ctx.Done():
			c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

type wsConn struct {
	c      *websocket.Conn
	remote string
}

// wsListener implements net.Listener for websockets accepted by rpcHandler.
type wsListener struct {
	ch     chan wsConn
	ctx    context.Context
	cancel context.CancelFunc
	addr   wsAddr
}

func newWSListener(ctx context.Context, addr string) *wsListener {
	ctx, cancel := context.WithCancel(ctx)
	return &wsListener{
		ch:     make(chan wsConn),
		ctx:    ctx,
		cancel: cancel,
		addr:   wsAddr{addr: addr},
	}
}

func (l *wsListener) Accept() (net.Conn, error) {
	select {
	case wc := <-l.ch:
		return remoteConn{
			Conn:   websocket.NetConn(l.ctx, wc.c, websocket.MessageBinary),
			remote: wsAddr{addr: wc.remote},
		}, nil
	case <-l.ctx.Done():
		return nil, net.ErrClosed
	}
}

func (l *wsListener) Addr() net.Addr {
	return l.addr
}

func (l *wsListener) Close() error {
	l.cancel()
	return nil
}

// remoteConn reports the http peer as the remote address; the net.Conn of
// a websocket only knows a placeholder.
type remoteConn struct {
	net.Conn
	remote net.Addr
}

func (c remoteConn) RemoteAddr() net.Addr {
	return c.remote
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
