// Package tui renders interactive progress for long-running fontindex
// commands.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/fontindex/pkg/fontindex/index"
	"github.com/jamesainslie/fontindex/pkg/fontindex/scanner"
)

// RebuildFunc rebuilds one store, reporting scan progress to onProgress.
type RebuildFunc func(ctx context.Context, onProgress func(scanner.Progress)) (index.Report, error)

// Job is one store to rebuild.
type Job struct {
	Store string
	Run   RebuildFunc
}

// ProgressMsg is sent when a store reports scan progress.
type ProgressMsg struct {
	Store    string
	Progress scanner.Progress
}

// StoreDoneMsg is sent when one store finishes.
type StoreDoneMsg struct {
	Report index.Report
}

// RebuildCompleteMsg is sent when every job has finished or one failed.
type RebuildCompleteMsg struct {
	Reports []index.Report
	Err     error
}

// RebuildModel shows a spinner and progress bar while stores rebuild.
type RebuildModel struct {
	ctx    context.Context
	cancel context.CancelFunc
	jobs   []Job

	spinner   spinner.Model
	store     string
	progress  scanner.Progress
	finished  []index.Report
	startTime time.Time
	width     int
	done      bool
	err       error

	progressChan chan tea.Msg
}

// NewRebuildModel creates a model that runs jobs in order.
func NewRebuildModel(ctx context.Context, jobs []Job) RebuildModel {
	ctx, cancel := context.WithCancel(ctx)

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = storeStyle

	store := ""
	if len(jobs) > 0 {
		store = jobs[0].Store
	}

	return RebuildModel{
		ctx:          ctx,
		cancel:       cancel,
		jobs:         jobs,
		spinner:      s,
		store:        store,
		startTime:    time.Now(),
		width:        80,
		progressChan: make(chan tea.Msg, 100),
	}
}

// Init starts the spinner and the rebuild.
func (m RebuildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRebuild(), m.listenForProgress())
}

// Update handles messages for the rebuild model.
func (m RebuildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
		return m, nil

	case ProgressMsg:
		m.store = msg.Store
		m.progress = msg.Progress
		return m, m.listenForProgress()

	case StoreDoneMsg:
		m.finished = append(m.finished, msg.Report)
		m.progress = scanner.Progress{}
		return m, m.listenForProgress()

	case RebuildCompleteMsg:
		m.finished = msg.Reports
		m.SetDone(msg.Err)
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current store, its progress and finished stores.
func (m RebuildModel) View() string {
	var b strings.Builder

	for _, r := range m.finished {
		b.WriteString(successTextStyle.Render("  ✓ "))
		b.WriteString(storeStyle.Render(r.Store))
		b.WriteString(mutedTextStyle.Render(fmt.Sprintf("  %s fonts", humanize.Comma(int64(r.Entries)))))
		b.WriteString("\n")
	}

	if m.done {
		if m.err != nil {
			b.WriteString(errorTextStyle.Render(fmt.Sprintf("  Error: %v", m.err)))
			b.WriteString("\n")
		}
		return b.String()
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	counter := "listing fonts"
	if m.progress.Total > 0 {
		counter = fmt.Sprintf("%s/%s", humanize.Comma(m.progress.Done), humanize.Comma(m.progress.Total))
	}
	line := fmt.Sprintf("  %s %s %s", m.spinner.View(), storeStyle.Render(m.store), countStyle.Render(counter))
	b.WriteString(line)
	b.WriteString("\n")
	b.WriteString(m.renderProgressBar(contentWidth))
	b.WriteString("\n")
	if m.progress.Path != "" {
		b.WriteString(mutedTextStyle.Render("  " + truncatePath(m.progress.Path, contentWidth-2)))
		b.WriteString("\n")
	}
	return b.String()
}

// renderProgressBar renders a determinate bar once the total is known.
func (m RebuildModel) renderProgressBar(width int) string {
	barWidth := width - 4
	if barWidth < 10 {
		barWidth = 10
	}

	filled := 0
	if m.progress.Total > 0 {
		filled = int(m.progress.Done * int64(barWidth) / m.progress.Total)
	}
	if filled > barWidth {
		filled = barWidth
	}

	return "  " + progressFillStyle.Render(repeatChar('█', filled)) +
		progressEmptyStyle.Render(repeatChar('░', barWidth-filled))
}

// startRebuild runs every job on a background goroutine.
func (m RebuildModel) startRebuild() tea.Cmd {
	ctx, jobs, progressChan := m.ctx, m.jobs, m.progressChan
	return func() tea.Msg {
		defer close(progressChan)

		var reports []index.Report
		for _, job := range jobs {
			store := job.Store
			report, err := job.Run(ctx, func(p scanner.Progress) {
				select {
				case progressChan <- ProgressMsg{Store: store, Progress: p}:
				default:
					// Channel full, skip this update
				}
			})
			if err != nil {
				return RebuildCompleteMsg{Reports: reports, Err: fmt.Errorf("%s: %w", store, err)}
			}
			reports = append(reports, report)
			select {
			case progressChan <- StoreDoneMsg{Report: report}:
			case <-ctx.Done():
			}
		}
		return RebuildCompleteMsg{Reports: reports}
	}
}

// listenForProgress returns a command that waits for the next progress message.
func (m RebuildModel) listenForProgress() tea.Cmd {
	progressChan := m.progressChan
	return func() tea.Msg {
		msg, ok := <-progressChan
		if !ok {
			// Channel closed, rebuild is done
			return nil
		}
		return msg
	}
}

// SetDone marks the rebuild as complete.
func (m *RebuildModel) SetDone(err error) {
	m.done = true
	m.err = err
}

// IsDone returns true if the rebuild is complete.
func (m RebuildModel) IsDone() bool {
	return m.done
}

// Error returns any error from the rebuild.
func (m RebuildModel) Error() error {
	return m.err
}

// Reports returns the reports of the stores that finished.
func (m RebuildModel) Reports() []index.Report {
	return m.finished
}

// RunRebuild runs jobs behind an inline progress display on the terminal.
func RunRebuild(ctx context.Context, jobs []Job, opts ...tea.ProgramOption) ([]index.Report, error) {
	model := NewRebuildModel(ctx, jobs)
	defer model.cancel()

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return nil, err
	}
	m := final.(RebuildModel)
	return m.Reports(), m.Error()
}
