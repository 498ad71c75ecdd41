//go:build js && wasm

// webclient is the browser viewer of the shared exploration. Key presses are
// sent to the server as commands; the frames it pushes are drawn on the
// canvas.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"syscall/js"

	mandel "github.com/marben/mandel_explorer"
)

// clientMsg mirrors the server's command message.
type clientMsg struct {
	Cmd    string `json:"cmd"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// status mirrors the server's status message.
type status struct {
	Zoom        float64 `json:"zoom"`
	Re          float64 `json:"re"`
	Im          float64 `json:"im"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	RecomputeMS float64 `json:"recompute_ms"`
	Viewers     int     `json:"viewers"`
	Error       string  `json:"error,omitempty"`
}

// keyCommands maps KeyboardEvent.key values to commands.
var keyCommands = map[string]mandel.Command{
	"w": mandel.PanUp, "ArrowUp": mandel.PanUp,
	"s": mandel.PanDown, "ArrowDown": mandel.PanDown,
	"a": mandel.PanLeft, "ArrowLeft": mandel.PanLeft,
	"d": mandel.PanRight, "ArrowRight": mandel.PanRight,
	"r": mandel.ZoomIn, "+": mandel.ZoomIn, "=": mandel.ZoomIn,
	"f": mandel.ZoomOut, "-": mandel.ZoomOut,
	"z": mandel.Reset,
}

func init() {
	for i := range mandel.Landmarks {
		keyCommands[fmt.Sprint(i+1)] = mandel.GotoCommand(i)
	}
}

var verbose bool

func main() {
	loc := js.Global().Get("window").Get("location")
	verbose = strings.Contains(loc.Get("search").String(), "debug")
	logScreenf("Starting WASM web client...")

	// Figure out the server address to open the WebSocket
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketURL := proto + "://" + loc.Get("host").String() + "/ws"

	logScreenf("Connecting to %s...", websocketURL)
	conn := newWSConn(js.Global().Get("WebSocket").New(websocketURL))

	w, h := viewportSize()
	if err := conn.SendJSON(clientMsg{Cmd: "resize", Width: w, Height: h}); err != nil {
		logFatalf("initial resize: %v", err)
	}
	logScreenf("Connected, viewport %dx%d", w, h)

	js.Global().Get("document").Call("addEventListener", "keydown", js.FuncOf(func(this js.Value, args []js.Value) any {
		key := args[0].Get("key").String()
		cmd, ok := keyCommands[key]
		if !ok {
			cmd, ok = keyCommands[strings.ToLower(key)]
		}
		if !ok {
			return nil
		}
		args[0].Call("preventDefault")
		// SendJSON may wait for the socket to open; never block the js event loop.
		go send(conn, clientMsg{Cmd: string(cmd)})
		return nil
	}))

	js.Global().Get("window").Call("addEventListener", "resize", js.FuncOf(func(js.Value, []js.Value) any {
		w, h := viewportSize()
		go send(conn, clientMsg{Cmd: "resize", Width: w, Height: h})
		return nil
	}))

	if err := receiveLoop(conn); err != nil {
		logFatalf("receiveLoop: %v", err)
	}
	conn.Close()
	logScreenf("Disconnected.")

	// Prevent the Go program from exiting
	select {}
}

func send(conn *wsConn, msg clientMsg) {
	if err := conn.SendJSON(msg); err != nil {
		logScreenf("send %q: %v", msg.Cmd, err)
	}
}

// receiveLoop updates the HUD from status messages and the canvas from
// frames until the socket closes.
func receiveLoop(conn *wsConn) error {
	for m := range conn.Messages() {
		if !m.text {
			if err := displayFrame(m.data); err != nil {
				return err
			}
			continue
		}

		var st status
		if err := json.Unmarshal(m.data, &st); err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if st.Error != "" {
			logScreenf("server: %s", st.Error)
			continue
		}
		hudSet("zoom", fmt.Sprintf("%.4g", st.Zoom))
		hudSet("centre", fmt.Sprintf("%.10f%+.10fi", st.Re, st.Im))
		hudSet("size", fmt.Sprintf("%dx%d", st.Width, st.Height))
		hudSet("recompute", fmt.Sprintf("%.1f", st.RecomputeMS))
		hudSet("viewers", fmt.Sprint(st.Viewers))
	}
	return nil
}

func hudSet(id, text string) {
	js.Global().Get("document").Call("getElementById", id).Set("textContent", text)
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// debugf logs only when the page was opened with ?debug.
func debugf(format string, a ...any) {
	if verbose {
		logScreenf(format, a...)
	}
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}
