package vision

import (
	"gocv.io/x/gocv"

	"helmetwatch/internal/logger"
	"helmetwatch/internal/model"
)

// Window shows frames in a desktop window. Pressing q raises the quit signal.
type Window struct {
	window *gocv.Window
	quit   bool
	logger *logger.Logger
}

// NewWindow opens a named preview window.
func NewWindow(title string, logger *logger.Logger) *Window {
	return &Window{window: gocv.NewWindow(title), logger: logger}
}

// Publish shows the frame and polls the keyboard.
func (w *Window) Publish(frame model.Frame) {
	mat, err := ToMat(frame)
	if err != nil {
		w.logger.Warning("Cannot show frame %d: %v", frame.Seq, err)
		return
	}
	defer mat.Close()

	w.window.IMShow(mat)
	if key := w.window.WaitKey(1); key == 'q' || key == 'Q' {
		w.logger.Info("Quit requested from preview window")
		w.quit = true
	}
}

// QuitRequested reports whether q was pressed.
func (w *Window) QuitRequested() bool {
	return w.quit
}

// Close closes the window.
func (w *Window) Close() error {
	return w.window.Close()
}
