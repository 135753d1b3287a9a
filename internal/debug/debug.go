package debug

import (
	"fmt"

	"model-engine/internal/scene"

	rl "github.com/gen2brain/raylib-go/raylib"
)

const (
	fontSize      = 20
	padding       = 12
	lineHeight    = fontSize + 4
	logFontSize   = 14
	logLineHeight = logFontSize + 2
	logTailLines  = 6
	// refresh text every updateInterval frames
	updateInterval = 30
)

// Overlay draws viewer statistics in the top-right corner.
type Overlay struct {
	ShowFPS   bool
	ShowStats bool
	stats     func() scene.Stats
	log       func() []string
	frame     uint32
	lines     []string
	logLines  []string
}

// New returns an overlay reading its numbers from stats, with FPS and stats shown.
func New(stats func() scene.Stats) *Overlay {
	return &Overlay{ShowFPS: true, ShowStats: true, stats: stats}
}

// SetLog makes the overlay show the last few lines returned by lines in the bottom-left corner.
func (o *Overlay) SetLog(lines func() []string) {
	o.log = lines
}

// Tail returns the last n lines.
func Tail(lines []string, n int) []string {
	if len(lines) <= n {
		return lines
	}
	return lines[len(lines)-n:]
}

// Lines formats the overlay text.
func Lines(fps int32, showFPS bool, st *scene.Stats) []string {
	var out []string
	if showFPS {
		out = append(out, fmt.Sprintf("FPS: %d", fps))
	}
	if st != nil {
		out = append(out, fmt.Sprintf("Models: %d", st.Entities), fmt.Sprintf("Vertices: %d", st.Vertices))
		if !st.Grid {
			out = append(out, "Grid: off (G)")
		}
	}
	return out
}

// Draw renders the overlay. Call after the scene in the draw loop. F3 toggles it.
func (o *Overlay) Draw() {
	if rl.IsKeyPressed(rl.KeyF3) {
		o.ShowFPS = !o.ShowFPS
		o.ShowStats = o.ShowFPS
		o.lines = nil
	}
	if o.frame%updateInterval == 0 || o.lines == nil {
		var st *scene.Stats
		if o.ShowStats && o.stats != nil {
			s := o.stats()
			st = &s
		}
		o.lines = Lines(rl.GetFPS(), o.ShowFPS, st)
		o.logLines = nil
		if o.ShowStats && o.log != nil {
			o.logLines = Tail(o.log(), logTailLines)
		}
	}
	o.frame++

	screenW := int32(rl.GetScreenWidth())
	y := int32(padding)
	for _, text := range o.lines {
		w := rl.MeasureText(text, fontSize)
		rl.DrawText(text, screenW-w-padding, y, fontSize, rl.Green)
		y += lineHeight
	}

	y = int32(rl.GetScreenHeight()) - padding - int32(len(o.logLines))*logLineHeight
	for _, text := range o.logLines {
		rl.DrawText(text, padding, y, logFontSize, rl.LightGray)
		y += logLineHeight
	}
}
