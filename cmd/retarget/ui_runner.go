package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"retarget/internal/pipeline"
	"retarget/internal/ui"
)

// switchMode is the value of an auto|on|off flag such as --ui or --color.
type switchMode uint8

const (
	switchAuto switchMode = iota
	switchOn
	switchOff
)

func (m switchMode) String() string {
	switch m {
	case switchOn:
		return "on"
	case switchOff:
		return "off"
	default:
		return "auto"
	}
}

func parseSwitch(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return switchAuto, nil
	case "on":
		return switchOn, nil
	case "off":
		return switchOff, nil
	default:
		return switchAuto, fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// resolve settles auto against whether output goes to a terminal.
func (m switchMode) resolve(tty bool) bool {
	switch m {
	case switchOn:
		return true
	case switchOff:
		return false
	default:
		return tty
	}
}

// showProgress reports whether a walk renders the live progress view.
// JSON output never does; quiet runs only when forced on.
func showProgress(mode switchMode, format string, quiet, tty bool) bool {
	if format == "json" {
		return false
	}
	if quiet && mode != switchOn {
		return false
	}
	return mode.resolve(tty)
}

type runOutcome struct {
	result *pipeline.Result
	err    error
}

// runWithUI executes the pipeline in the background while a progress view
// consumes its events.
func runWithUI(ctx context.Context, out io.Writer, title string, req *pipeline.Request) (*pipeline.Result, error) {
	if req == nil {
		return nil, fmt.Errorf("missing pipeline request")
	}
	events := make(chan pipeline.Event, 256)
	outcomeCh := make(chan runOutcome, 1)

	go func() {
		reqCopy := *req
		reqCopy.Progress = pipeline.ChannelSink{Ch: events}
		res, err := pipeline.Run(ctx, &reqCopy)
		outcomeCh <- runOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, req.Files, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Keep the pipeline from blocking on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
