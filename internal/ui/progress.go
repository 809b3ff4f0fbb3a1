// Package ui renders an interactive progress view of an analysis run, fed by
// the driver's progress events.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"fpgasta/internal/driver"
)

type stageItem struct {
	stage  driver.Stage
	status string
	done   int
	total  int
}

type progressModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	prog    progress.Model
	stages  []stageItem
	index   map[driver.Stage]int
	lastNet string
	width   int
	done    bool
}

type eventMsg driver.Event
type doneMsg struct{}

// NewProgressModel returns a Bubble Tea model that renders analysis progress.
func NewProgressModel(title string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	order := []driver.Stage{
		driver.StageLoadDevice,
		driver.StageLoadNetlist,
		driver.StageIndex,
		driver.StagePatch,
		driver.StageDelay,
	}
	stages := make([]stageItem, 0, len(order))
	index := make(map[driver.Stage]int, len(order))
	for i, stage := range order {
		stages = append(stages, stageItem{stage: stage, status: "queued"})
		index[stage] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		stages:  stages,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(driver.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case progress.FrameMsg:
		progModel, cmd := m.prog.Update(msg)
		m.prog = progModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	if m.done {
		header = fmt.Sprintf("done: %s", header)
	} else {
		header = fmt.Sprintf("%s %s", m.spinner.View(), header)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	for _, item := range m.stages {
		statusStyled := styleStatus(item.status).Render(fmt.Sprintf("%8s", item.status))
		line := fmt.Sprintf("  %s %s", statusStyled, item.stage)
		if item.total > 0 {
			line += fmt.Sprintf(" (%d/%d)", item.done, item.total)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.lastNet != "" && !m.done {
		nameWidth := m.width - 8
		if nameWidth < 20 {
			nameWidth = 20
		}
		b.WriteString(lipgloss.NewStyle().Faint(true).Render("  net " + truncate(m.lastNet, nameWidth)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.done {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev driver.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	item := &m.stages[idx]
	switch ev.Status {
	case driver.StatusWorking:
		item.status = "working"
	case driver.StatusDone:
		item.status = "done"
	case driver.StatusError:
		item.status = "error"
	}
	if ev.Total > 0 {
		item.done = ev.Done
		item.total = ev.Total
	}
	if ev.Net != "" {
		m.lastNet = ev.Net
	}
	return m.prog.SetPercent(m.overallProgress())
}

// overallProgress weighs the three setup stages lightly and spreads the rest
// over the two per-net passes.
func (m *progressModel) overallProgress() float64 {
	total := 0.0
	for _, item := range m.stages {
		weight := 0.05
		if item.stage == driver.StagePatch {
			weight = 0.35
		} else if item.stage == driver.StageDelay {
			weight = 0.50
		}
		switch {
		case item.status == "done":
			total += weight
		case item.total > 0:
			total += weight * float64(item.done) / float64(item.total)
		}
	}
	return total
}

func styleStatus(status string) lipgloss.Style {
	switch status {
	case "done":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case "working":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
