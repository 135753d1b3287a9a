package graphics

import rl "github.com/gen2brain/raylib-go/raylib"

// Window describes the viewer window. Zero Width or Height in windowed mode falls back to
// 1280x720; fullscreen uses the monitor size.
type Window struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
	FPS        int
}

// Run opens the window and runs the main loop. Each frame it calls update (input, deferred
// loading), then clears the screen and calls draw. The loop ends when the window is closed or
// update returns an error, which Run returns.
func Run(w Window, update func() error, draw func()) error {
	width, height := w.Width, w.Height
	if width <= 0 || height <= 0 {
		width, height = 1280, 720
	}
	if w.Fullscreen {
		rl.SetConfigFlags(rl.FlagFullscreenMode | rl.FlagMsaa4xHint)
		width, height = rl.GetMonitorWidth(0), rl.GetMonitorHeight(0)
	} else {
		rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	}
	rl.InitWindow(int32(width), int32(height), w.Title)
	defer rl.CloseWindow()

	fps := w.FPS
	if fps <= 0 {
		fps = 60
	}
	rl.SetTargetFPS(int32(fps))

	for !rl.WindowShouldClose() {
		if err := update(); err != nil {
			return err
		}

		rl.BeginDrawing()
		rl.ClearBackground(background)
		draw()
		rl.EndDrawing()
	}
	return nil
}

var background = rl.NewColor(24, 26, 32, 255)
