// Package ui is the terminal presentation layer. It consumes render views
// and draws them; nothing in the core depends on it.
package ui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"groundstation/internal/render"
	"groundstation/internal/session"
	"groundstation/internal/telemetry"
)

const (
	engineOnTag  = "[green]"
	engineOffTag = "[gray]"
)

// Dashboard is a tview ground-station display. It implements
// render.Renderer; the render clock hands it a View per tick and every
// update is marshaled onto the tview event loop.
type Dashboard struct {
	app  *tview.Application
	ctrl *session.Controller

	device string
	baud   int

	status   *tview.TextView
	attitude *tview.TextView
	position *tview.TextView
	engines  *tview.TextView
	raw      *tview.TextView
	command  *tview.InputField

	stopped atomic.Bool
}

func New(ctrl *session.Controller, device string, baud int) *Dashboard {
	d := &Dashboard{
		app:    tview.NewApplication(),
		ctrl:   ctrl,
		device: device,
		baud:   baud,
	}

	d.status = panel(" Link ")
	d.attitude = panel(" Attitude ")
	d.position = panel(" Position Trail ")
	d.engines = panel(" Engines ")
	d.raw = panel(" Raw Serial ")

	d.command = tview.NewInputField().SetLabel("cmd> ").SetFieldWidth(0)
	d.command.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		cmd := strings.TrimSpace(d.command.GetText())
		d.command.SetText("")
		if cmd == "" {
			return
		}
		if err := d.ctrl.Send(cmd); err != nil {
			d.status.SetText(fmt.Sprintf("[red]send failed: %v", err))
		}
	})

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.status, 4, 0, false).
		AddItem(d.attitude, 6, 0, false).
		AddItem(d.engines, 4, 0, false).
		AddItem(d.position, 0, 1, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.raw, 0, 1, false)

	cols := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(left, 0, 1, false).
		AddItem(right, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(cols, 0, 1, false).
		AddItem(d.command, 1, 0, true)

	d.app.SetRoot(root, true)
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF2:
			go d.connect()
			return nil
		case tcell.KeyF3:
			go d.ctrl.Disconnect()
			return nil
		case tcell.KeyF10:
			d.Stop()
			return nil
		}
		return event
	})

	return d
}

func panel(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true).SetTitle(title)
	return tv
}

// Run blocks inside the tview event loop until Stop.
func (d *Dashboard) Run() error {
	return d.app.Run()
}

func (d *Dashboard) Stop() {
	if d.stopped.Swap(true) {
		return
	}
	d.app.Stop()
}

func (d *Dashboard) connect() {
	if err := d.ctrl.Connect(d.device, d.baud); err != nil {
		d.app.QueueUpdateDraw(func() {
			d.status.SetText(fmt.Sprintf("[red]connect failed: %v", err))
		})
	}
}

// Render implements render.Renderer.
func (d *Dashboard) Render(v render.View) {
	if d.stopped.Load() {
		return
	}
	d.app.QueueUpdateDraw(func() {
		d.status.SetText(statusText(v, d.device, d.baud))
		d.attitude.SetText(attitudeText(v))
		d.position.SetText(positionText(v))
		d.engines.SetText(enginesText(v.Engines))
		d.raw.SetText(strings.Join(v.RawLines, "\n"))
		d.raw.ScrollToEnd()
	})
}

func statusText(v render.View, device string, baud int) string {
	state := "[red]● disconnected[-]  F2 connect"
	if v.Connected {
		state = "[green]● connected[-]  F3 disconnect"
	}
	return fmt.Sprintf("%s\nport %s @ %d\nflight %s  frames %s  lines %s",
		state, device, baud, v.FlightTime,
		humanize.Comma(int64(v.Frames)), humanize.Comma(int64(v.Lines)))
}

func attitudeText(v render.View) string {
	return fmt.Sprintf("[red]X[-] %+6.3f %+6.3f %+6.3f\n[green]Y[-] %+6.3f %+6.3f %+6.3f\n[blue]Z[-] %+6.3f %+6.3f %+6.3f",
		v.BasisX.X, v.BasisX.Y, v.BasisX.Z,
		v.BasisY.X, v.BasisY.Y, v.BasisY.Z,
		v.BasisZ.X, v.BasisZ.Y, v.BasisZ.Z)
}

func positionText(v render.View) string {
	if len(v.Trail) == 0 {
		return "no points yet"
	}
	last := v.Trail[len(v.Trail)-1]
	return fmt.Sprintf("now  (%.2f, %.2f, %.2f)\npts  %d\nx [%.1f, %.1f]\ny [%.1f, %.1f]\nz [%.1f, %.1f]",
		last.X, last.Y, last.Z, len(v.Trail),
		v.Min.X, v.Max.X, v.Min.Y, v.Max.Y, v.Min.Z, v.Max.Z)
}

func enginesText(engines [telemetry.EngineCount]bool) string {
	parts := make([]string, 0, len(engines))
	for i, on := range engines {
		tag := engineOffTag + "○"
		if on {
			tag = engineOnTag + "●"
		}
		parts = append(parts, fmt.Sprintf("%s %d[-]", tag, i+1))
	}
	return strings.Join(parts, "   ")
}
