//go:build js && wasm

package main

import (
	"encoding/json"
	"io"
	"sync"
	"syscall/js"
)

// message is one websocket message: text carries JSON status, binary a PNG.
type message struct {
	text bool
	data []byte
}

// wsConn wraps a browser WebSocket as a message stream.
type wsConn struct {
	ws js.Value

	mu     sync.Mutex // js onclose can preempt Send
	closed bool

	msgCh  chan message
	openCh chan struct{} // closed when connected
	err    error

	funcs []js.Func
}

func newWSConn(ws js.Value) *wsConn {
	c := &wsConn{
		ws:     ws,
		msgCh:  make(chan message, 8),
		openCh: make(chan struct{}),
	}

	ws.Set("binaryType", "arraybuffer")

	c.on("onopen", func(js.Value, []js.Value) any {
		close(c.openCh)
		return nil
	})

	c.on("onerror", func(js.Value, []js.Value) any {
		c.mu.Lock()
		c.err = io.ErrUnexpectedEOF
		c.mu.Unlock()
		select {
		case <-c.openCh:
		default:
			close(c.openCh)
		}
		return nil
	})

	c.on("onmessage", func(this js.Value, args []js.Value) any {
		data := args[0].Get("data")
		if data.Type() == js.TypeString {
			c.deliver(message{text: true, data: []byte(data.String())})
			return nil
		}
		u8 := js.Global().Get("Uint8Array").New(data)
		b := make([]byte, u8.Get("byteLength").Int())
		js.CopyBytesToGo(b, u8)
		c.deliver(message{data: b})
		return nil
	})

	c.on("onclose", func(js.Value, []js.Value) any {
		logScreenf("websocket closed")
		c.mu.Lock()
		if !c.closed {
			c.closed = true
			close(c.msgCh)
		}
		c.mu.Unlock()
		return nil
	})

	return c
}

func (c *wsConn) on(event string, fn func(js.Value, []js.Value) any) {
	f := js.FuncOf(fn)
	c.funcs = append(c.funcs, f)
	c.ws.Set(event, f)
}

// deliver hands m to the reader without blocking the js event loop; js
// callbacks run on the only thread, so a full queue drops the oldest.
func (c *wsConn) deliver(m message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	for {
		select {
		case c.msgCh <- m:
			return
		default:
		}
		select {
		case <-c.msgCh:
		default:
		}
	}
}

// Messages returns the incoming message stream; it is closed with the socket.
func (c *wsConn) Messages() <-chan message {
	return c.msgCh
}

// SendJSON sends v as a text message once the socket is open.
func (c *wsConn) SendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.waitOpen(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	c.ws.Call("send", string(b))
	return nil
}

// Close closes the socket and releases the js callbacks.
func (c *wsConn) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.msgCh)
	}
	funcs := c.funcs
	c.funcs = nil
	c.mu.Unlock()

	c.ws.Call("close")
	for _, f := range funcs {
		f.Release()
	}
	return nil
}

func (c *wsConn) waitOpen() error {
	<-c.openCh

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	if c.closed {
		return io.ErrClosedPipe
	}
	return nil
}
