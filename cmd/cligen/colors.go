package main

import (
	"os"

	"github.com/fatih/color"
)

// ShouldUseColor determines if color output should be used
// Respects --no-color flag and NO_COLOR environment variable
func ShouldUseColor(noColorFlag bool) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	// color.NoColor is set when stdout is not a terminal
	return !color.NoColor
}

// palette holds the colors used for diagnostics.
type palette struct {
	err   *color.Color
	warn  *color.Color
	hint  *color.Color
	muted *color.Color
	ok    *color.Color
}

func newPalette(useColor bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow),
		hint:  color.New(color.FgCyan),
		muted: color.New(color.FgHiBlack),
		ok:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.hint, p.muted, p.ok} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
