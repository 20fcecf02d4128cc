package widget

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/GoldenFealla/framesync/internal/player"
)

// refreshEvery is how many presentation ticks pass between control bar refreshes.
const refreshEvery = 10

// seekStep is how far the arrow keys jump.
const seekStep = 5 * time.Second

// Window is the player window: the video surface above the controls.
type Window struct {
	win      fyne.Window
	ctl      *player.Controller
	surface  *VideoSurface
	controls *Controls
	watch    bool
}

func NewWindow(a fyne.App, ctl *player.Controller, surface *VideoSurface, controls *Controls, watch bool) *Window {
	w := &Window{
		win:      a.NewWindow("framesync"),
		ctl:      ctl,
		surface:  surface,
		controls: controls,
		watch:    watch,
	}

	toolbar := widget.NewToolbar(
		widget.NewToolbarAction(theme.FolderOpenIcon(), w.openFolder),
		widget.NewToolbarAction(theme.FileVideoIcon(), w.openFile),
	)
	w.win.SetContent(container.NewBorder(toolbar, controls.Content(), nil, nil, surface))
	w.win.Resize(fyne.NewSize(960, 620))
	w.win.Canvas().SetOnTypedKey(w.typedKey)

	ctl.OnChange(func() {
		fyne.Do(controls.Refresh)
	})
	return w
}

func (w *Window) openFolder() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		go w.controls.report(w.ctl.OpenFolder(uri.Path(), w.watch))
	}, w.win)
}

func (w *Window) openFile() {
	dialog.ShowFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		rc.Close()
		go w.controls.report(w.ctl.OpenFiles(path))
	}, w.win)
}

func (w *Window) typedKey(ev *fyne.KeyEvent) {
	e := w.ctl.Engine()

	switch ev.Name {
	case fyne.KeySpace:
		e.TogglePause()
	case fyne.KeyRight, fyne.KeyLeft:
		snap := e.Snapshot()
		step := int(seekStep.Seconds() * snap.Item.FrameRate)
		if ev.Name == fyne.KeyLeft {
			step = -step
		}
		go w.controls.report(e.Seek(snap.Frame + step))
	case fyne.KeyN:
		go w.controls.report(w.ctl.Next())
	case fyne.KeyP:
		go w.controls.report(w.ctl.Prev())
	}
	w.controls.Refresh()
}

// Run drives the presentation loop on the fyne event loop until the window closes.
func (w *Window) Run(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	w.win.SetOnClosed(func() {
		cancel()
		w.ctl.Close()
	})

	go w.tick(ctx, interval)
	w.win.ShowAndRun()
}

func (w *Window) tick(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	e := w.ctl.Engine()
	n := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fyne.Do(func() {
				e.Tick()
				if n++; n%refreshEvery == 0 {
					w.controls.Refresh()
				}
			})
		}
	}
}
