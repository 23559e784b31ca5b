package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chillbox/internal/ipc"
)

func formatLine(s ipc.SnapshotData) string {
	state := "paused"
	if s.Running {
		state = "running"
	}
	return fmt.Sprintf("#%d %-9s %s %-7s completed=%d (%s)", s.Seq, s.Kind, s.Clock, state, s.CompletedWork, s.Cause)
}

func renderView(s ipc.SnapshotData, status string) string {
	var b strings.Builder
	color := "green"
	if s.Kind != "Work" {
		color = "aqua"
	}
	state := "[yellow]paused"
	if s.Running {
		state = "[green]running"
	}
	fmt.Fprintf(&b, "\n[%s::b]%s[-:-:-]\n\n", color, s.Kind)
	fmt.Fprintf(&b, "[white::b]%s[-:-:-]\n\n", s.Clock)
	fmt.Fprintf(&b, "%s[-]   completed work sessions: %d\n\n", state, s.CompletedWork)
	b.WriteString("[gray]s start   p pause   r reset   q quit[-]\n")
	if status != "" {
		fmt.Fprintf(&b, "\n[red]%s[-]\n", tview.Escape(status))
	}
	return b.String()
}

// runWatchUI shows a live view of the timer until the user quits, ctx is
// cancelled or the daemon closes the stream.
func runWatchUI(ctx context.Context, socketPath string) error {
	if _, err := ipc.Send(socketPath, ipc.Command{Name: ipc.CmdPing}); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app := tview.NewApplication()
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	view.SetBorder(true).SetTitle(" chillbox ")

	var last ipc.SnapshotData
	var status string
	redraw := func() { view.SetText(renderView(last, status)) }

	control := func(name string) {
		go func() {
			resp, err := ipc.Send(socketPath, ipc.Command{Name: name})
			msg := ""
			if err != nil {
				msg = err.Error()
			} else if !resp.Success {
				msg = resp.Message
			}
			app.QueueUpdateDraw(func() {
				status = msg
				redraw()
			})
		}()
	}

	app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		switch ev.Rune() {
		case 's':
			control(ipc.CmdStart)
		case 'p':
			control(ipc.CmdPause)
		case 'r':
			control(ipc.CmdReset)
		case 'q':
			app.Stop()
		default:
			return ev
		}
		return nil
	})

	watchErr := make(chan error, 1)
	go func() {
		err := ipc.Watch(ctx, socketPath, func(s ipc.SnapshotData) {
			app.QueueUpdateDraw(func() {
				last = s
				redraw()
			})
		})
		watchErr <- err
		app.Stop()
	}()

	view.SetText("\nConnecting...")
	if err := app.SetRoot(view, true).Run(); err != nil {
		return err
	}
	cancel()
	return <-watchErr
}
