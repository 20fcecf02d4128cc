package widget

import (
	"fmt"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/GoldenFealla/framesync/internal/effects"
	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/GoldenFealla/framesync/internal/player"
	"github.com/GoldenFealla/framesync/internal/playlist"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// Controls is the transport bar under the video: navigation, play/pause, timeline, volume
// and the effect and order pickers.
type Controls struct {
	ctl *player.Controller
	log *logrus.Entry

	title    *widget.Label
	status   *widget.Label
	clock    *widget.Label
	play     *widget.Button
	prev     *widget.Button
	next     *widget.Button
	timeline *widget.Slider
	volume   *widget.Slider
	mode     *widget.Select
	eq       *widget.Select

	settings effects.Settings
	// dragging is set while the user holds the timeline.
	dragging bool

	content fyne.CanvasObject
}

func NewControls(ctl *player.Controller, settings effects.Settings, volume int) *Controls {
	settings.Equalizer = lo.CoalesceOrEmpty(settings.Equalizer, effects.None)

	c := &Controls{
		ctl:      ctl,
		log:      log.For("ui"),
		settings: settings,
		title:    widget.NewLabel(""),
		status:   widget.NewLabel(""),
		clock:    widget.NewLabel("00:00 / 00:00"),
	}
	c.title.Truncation = fyne.TextTruncateEllipsis
	c.status.Truncation = fyne.TextTruncateEllipsis

	c.play = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), func() {
		ctl.Engine().TogglePause()
		c.Refresh()
	})
	c.prev = widget.NewButtonWithIcon("", theme.MediaSkipPreviousIcon(), func() {
		go c.report(ctl.Prev())
	})
	c.next = widget.NewButtonWithIcon("", theme.MediaSkipNextIcon(), func() {
		go c.report(ctl.Next())
	})

	c.timeline = widget.NewSlider(0, 1)
	c.timeline.Step = 0.001
	c.timeline.OnChanged = func(float64) {
		c.dragging = true
	}
	c.timeline.OnChangeEnded = func(v float64) {
		c.dragging = false
		go c.report(ctl.Engine().SeekProgress(v))
	}

	c.volume = widget.NewSlider(0, 100)
	c.volume.SetValue(float64(volume))
	c.volume.OnChanged = func(v float64) {
		ctl.Engine().SetVolume(int(v))
	}

	c.mode = widget.NewSelect([]string{playlist.CreationTime.String(), playlist.PersistedOrder.String(), playlist.Random.String()}, func(s string) {
		m, err := playlist.ParseMode(s)
		if err != nil {
			c.report(err)
			return
		}
		c.report(ctl.SetMode(m))
	})
	c.mode.SetSelected(ctl.Playlist().Mode().String())

	c.eq = widget.NewSelect(effects.EqualizerPresets(), func(s string) {
		if s == c.settings.Equalizer {
			return
		}
		c.settings.Equalizer = s
		settings := c.settings
		go c.report(ctl.ApplyEffects(settings))
	})
	c.eq.SetSelected(settings.Equalizer)

	bar := container.NewBorder(nil, nil,
		container.NewHBox(c.prev, c.play, c.next),
		container.NewHBox(c.clock, widget.NewIcon(theme.VolumeUpIcon()), container.NewGridWrap(fyne.NewSize(100, c.volume.MinSize().Height), c.volume)),
		c.timeline,
	)
	info := container.NewBorder(nil, nil, nil, container.NewHBox(c.eq, c.mode), container.NewVBox(c.title, c.status))

	c.content = container.NewVBox(bar, info)
	return c
}

func (c *Controls) Content() fyne.CanvasObject {
	return c.content
}

// report logs err. Status text comes from the engine snapshot.
func (c *Controls) report(err error) {
	if err != nil {
		c.log.Warn(err)
	}
}

// Refresh copies the engine state into the widgets. It must run on the fyne goroutine.
func (c *Controls) Refresh() {
	snap := c.ctl.Engine().Snapshot()
	pl := c.ctl.Playlist()

	if snap.State == player.Playing || snap.State == player.Loading {
		c.play.SetIcon(theme.MediaPauseIcon())
	} else {
		c.play.SetIcon(theme.MediaPlayIcon())
	}

	title := ""
	if snap.Item.Path != "" {
		title = strings.TrimSpace(fmt.Sprintf("%s %s", filepath.Base(snap.Item.Path), pl.Position()))
	}
	c.title.SetText(title)
	c.status.SetText(snap.Status)
	c.clock.SetText(snap.TimeLabel())

	if !c.dragging && !snap.Seeking {
		c.timeline.Value = snap.Progress()
		c.timeline.Refresh()
	}

	setEnabled(c.prev, pl.CanRetreat())
	setEnabled(c.next, pl.CanAdvance())
}

func setEnabled(w fyne.Disableable, on bool) {
	if on {
		w.Enable()
	} else {
		w.Disable()
	}
}
