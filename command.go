package mandel

import (
	"fmt"
	"strings"
)

// Command is a discrete input command. The string form is used verbatim on
// the wire by the websocket viewer.
type Command string

const (
	PanUp    Command = "pan-up"
	PanDown  Command = "pan-down"
	PanLeft  Command = "pan-left"
	PanRight Command = "pan-right"
	ZoomIn   Command = "zoom-in"
	ZoomOut  Command = "zoom-out"
	Reset    Command = "reset"
	Quit     Command = "quit"
)

const gotoPrefix = "goto-"

// GotoCommand returns the command jumping to Landmarks[i].
func GotoCommand(i int) Command {
	return Command(gotoPrefix + Landmarks[i].Name)
}

func (c Command) landmark() (int, bool) {
	name, ok := strings.CutPrefix(string(c), gotoPrefix)
	if !ok {
		return 0, false
	}
	for i, l := range Landmarks {
		if l.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ParseCommand validates s as a Command.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case PanUp, PanDown, PanLeft, PanRight, ZoomIn, ZoomOut, Reset, Quit:
		return c, nil
	}
	if _, ok := c.landmark(); ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}
