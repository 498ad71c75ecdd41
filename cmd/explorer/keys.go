package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	mandel "github.com/marben/mandel_explorer"
)

type binding struct {
	keys []ebiten.Key
	cmd  mandel.Command
}

var bindings = []binding{
	{[]ebiten.Key{ebiten.KeyW, ebiten.KeyArrowUp}, mandel.PanUp},
	{[]ebiten.Key{ebiten.KeyS, ebiten.KeyArrowDown}, mandel.PanDown},
	{[]ebiten.Key{ebiten.KeyA, ebiten.KeyArrowLeft}, mandel.PanLeft},
	{[]ebiten.Key{ebiten.KeyD, ebiten.KeyArrowRight}, mandel.PanRight},
	{[]ebiten.Key{ebiten.KeyR, ebiten.KeyEqual, ebiten.KeyNumpadAdd}, mandel.ZoomIn},
	{[]ebiten.Key{ebiten.KeyF, ebiten.KeyMinus, ebiten.KeyNumpadSubtract}, mandel.ZoomOut},
	{[]ebiten.Key{ebiten.KeyZ}, mandel.Reset},
	{[]ebiten.Key{ebiten.KeyEscape, ebiten.KeyQ}, mandel.Quit},
}

var landmarkKeys = []ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
}

var (
	keyScreenshot = []ebiten.Key{ebiten.KeyP}
	keyHUD        = []ebiten.Key{ebiten.KeyH}
)

func justPressed(keys []ebiten.Key) bool {
	for _, k := range keys {
		if inpututil.IsKeyJustPressed(k) {
			return true
		}
	}
	return false
}

// pressedCommands returns the commands whose keys went down this tick, in
// binding order.
func pressedCommands() []mandel.Command {
	var cmds []mandel.Command
	for _, b := range bindings {
		if justPressed(b.keys) {
			cmds = append(cmds, b.cmd)
		}
	}
	for i, k := range landmarkKeys {
		if i < len(mandel.Landmarks) && inpututil.IsKeyJustPressed(k) {
			cmds = append(cmds, mandel.GotoCommand(i))
		}
	}
	return cmds
}
