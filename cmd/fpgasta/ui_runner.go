package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"fpgasta/internal/driver"
	"fpgasta/internal/ui"
)

type analysisOutcome struct {
	result *driver.Result
	err    error
}

// runAnalysisWithUI drives the run in a goroutine while Bubble Tea renders
// its progress events, and joins both when the run finishes.
func runAnalysisWithUI(ctx context.Context, title string, opts driver.Options) (*driver.Result, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan analysisOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Run(ctx, optsCopy)
		outcomeCh <- analysisOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
