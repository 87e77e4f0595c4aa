// Package tui renders a live terminal dashboard while a download batch
// runs: one row per repository moving through queued, cloning and a
// terminal state.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"

	"repodump/internal/downloader"
	"repodump/models"
)

type rowState int

const (
	rowQueued rowState = iota
	rowCloning
	rowDone
	rowFailed
)

type row struct {
	repo  models.Repo
	state rowState
	issue *models.Issue
}

// eventMsg carries one engine progress callback into the model.
type eventMsg struct {
	repo  models.Repo
	state downloader.State
	issue *models.Issue
}

// doneMsg carries the batch result once the engine returns.
type doneMsg struct {
	results *downloader.Results
	err     error
}

type tickMsg time.Time

// Model is the bubbletea model for a running download batch.
type Model struct {
	rows      []row
	index     map[string]int
	done      int
	failed    int
	started   time.Time
	elapsed   time.Duration
	width     int
	height    int
	finished  bool
	cancelled bool
	cancel    context.CancelFunc
	results   *downloader.Results
	err       error
}

func newModel(repos []models.Repo, cancel context.CancelFunc) Model {
	rows := make([]row, len(repos))
	index := make(map[string]int, len(repos))
	for i, r := range repos {
		rows[i] = row{repo: r}
		index[r.FullName()] = i
	}
	return Model{
		rows:    rows,
		index:   index,
		started: time.Now(),
		cancel:  cancel,
	}
}

// Run drives a download batch under the dashboard and returns its results.
// Pressing q cancels the context; in-flight clones finish or fail and the
// partial results are still returned.
func Run(ctx context.Context, eng *downloader.Engine, repos []models.Repo) (*downloader.Results, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(repos, cancel), tea.WithAltScreen())

	go func() {
		results, err := eng.DownloadAll(ctx, repos, func(repo models.Repo, state downloader.State, issue *models.Issue) {
			p.Send(eventMsg{repo: repo, state: state, issue: issue})
		})
		p.Send(doneMsg{results: results, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running dashboard: %w", err)
	}
	m := final.(Model)
	if m.err != nil {
		return m.results, m.err
	}
	return m.results, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.elapsed = time.Since(m.started)
		return m, tickCmd()

	case eventMsg:
		i, ok := m.index[msg.repo.FullName()]
		if !ok {
			return m, nil
		}
		switch msg.state {
		case downloader.StateStarted:
			m.rows[i].state = rowCloning
		case downloader.StateSuccess:
			m.rows[i].state = rowDone
			m.done++
		case downloader.StateIssue:
			m.rows[i].state = rowFailed
			m.rows[i].issue = msg.issue
			m.failed++
		}

	case doneMsg:
		m.finished = true
		m.results = msg.results
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if !m.cancelled {
				m.cancelled = true
				m.cancel()
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("repodump"))
	b.WriteString("\n\n")

	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d done", m.done+m.failed, len(m.rows))))
	if m.failed > 0 {
		b.WriteString(failedStyle.Render(fmt.Sprintf("  %d failed", m.failed)))
	}
	b.WriteString("\n\n")

	for _, r := range m.visibleRows() {
		b.WriteString(renderRow(r, m.width))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("elapsed %s  ·  q to cancel", m.elapsed.Round(time.Second))
	if m.cancelled && !m.finished {
		status = "cancelling, waiting for in-flight clones..."
	}
	b.WriteString("\n")
	b.WriteString(statusBarStyle.Render(status))
	return b.String()
}

// visibleRows keeps the output inside the terminal height: active and
// failed rows first, then whatever queued rows still fit.
func (m Model) visibleRows() []row {
	budget := m.height - 8
	if budget < 5 {
		budget = 5
	}
	if len(m.rows) <= budget {
		return m.rows
	}

	out := make([]row, 0, budget)
	for _, r := range m.rows {
		if r.state == rowCloning || r.state == rowFailed {
			out = append(out, r)
		}
	}
	for _, r := range m.rows {
		if len(out) >= budget {
			break
		}
		if r.state == rowQueued || r.state == rowDone {
			out = append(out, r)
		}
	}
	return out
}

func renderRow(r row, width int) string {
	var mark, detail string
	switch r.state {
	case rowQueued:
		mark = queuedStyle.Render("·")
	case rowCloning:
		mark = cloningStyle.Render("→")
	case rowDone:
		mark = doneStyle.Render("✓")
	case rowFailed:
		mark = failedStyle.Render("✗")
		if r.issue != nil {
			detail = failedStyle.Render("  (" + string(r.issue.Kind) + ")")
		}
	}

	name := r.repo.FullName()
	if width > 10 && len(name) > width-10 {
		name = name[:width-10] + "…"
	}
	return fmt.Sprintf("  %s %s%s", mark, name, detail)
}
