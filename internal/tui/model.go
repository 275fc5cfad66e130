// Package tui is the interactive dashboard: the current quota with a
// refresh key, focus and interval revalidation, and live updates when the
// background agent writes new data.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/github"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
)

// MirrorSource reads quotas another process stored.
type MirrorSource interface {
	LoadQuota(ctx context.Context) (*models.Quotas, time.Time, error)
}

// Options configures the dashboard.
type Options struct {
	Cache    *querycache.Cache
	Mirror   MirrorSource
	Username string
	// Interval between automatic revalidations. Zero disables them.
	Interval time.Duration
	// Changes signals that the mirror was written by someone else.
	Changes       <-chan struct{}
	ShowRemaining bool
}

type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx  context.Context
	opts Options

	spinner  spinner.Model
	progress progress.Model

	snapshot querycache.Snapshot
	lastErr  error
	width    int
	quitting bool
	now      func() time.Time
}

// New builds the dashboard model.
func New(ctx context.Context, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.MiniDot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return Model{
		ctx:      ctx,
		opts:     opts,
		spinner:  s,
		progress: p,
		snapshot: opts.Cache.Snapshot(),
		now:      time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		revalidateCmd(m.ctx, m.opts.Cache, querycache.TriggerMount),
		tickCmd(m.opts.Interval),
		waitForChange(m.opts.Changes),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, keys.Refresh):
			m.snapshot.IsFetching = true
			return m, revalidateCmd(m.ctx, m.opts.Cache, querycache.TriggerManual)
		}

	case tea.FocusMsg:
		return m, revalidateCmd(m.ctx, m.opts.Cache, querycache.TriggerFocus)

	case tickMsg:
		trigger := querycache.TriggerInterval
		if isNetworkError(m.lastErr) {
			trigger = querycache.TriggerReconnect
		}
		return m, tea.Batch(
			revalidateCmd(m.ctx, m.opts.Cache, trigger),
			tickCmd(m.opts.Interval),
		)

	case fetchDoneMsg:
		m.snapshot = msg.snapshot
		if msg.fetched {
			m.lastErr = msg.err
		}
		if msg.err != nil {
			logging.FromContext(m.ctx).Debug("revalidation failed", "trigger", string(msg.trigger), "err", msg.err)
		}
		return m, nil

	case mirrorChangedMsg:
		if m.opts.Mirror == nil {
			return m, waitForChange(m.opts.Changes)
		}
		return m, loadMirrorCmd(m.ctx, m.opts.Mirror)

	case mirrorLoadedMsg:
		if msg.err == nil && msg.quotas != nil {
			m.opts.Cache.SetData(m.ctx, *msg.quotas, msg.fetchedAt)
			m.snapshot = m.opts.Cache.Snapshot()
		}
		return m, waitForChange(m.opts.Changes)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = max(10, min(40, msg.Width-30))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	snap := m.snapshot

	switch {
	case snap.Data == nil && errors.Is(m.lastErr, quota.ErrNotAuthenticated):
		b.WriteString(display.RenderSignedOut())
	case snap.Data == nil && m.lastErr != nil:
		b.WriteString(display.RenderError(m.lastErr))
	case snap.Data == nil:
		b.WriteString(m.spinner.View() + " Fetching Copilot quota...")
	default:
		b.WriteString(m.renderHeadline(*snap.Data))
		b.WriteString("\n\n")
		b.WriteString(display.RenderQuota(*snap.Data, display.QuotaOptions{
			Username:      m.opts.Username,
			FetchedAt:     snap.FetchedAt,
			Cached:        snap.IsCached,
			ShowRemaining: m.opts.ShowRemaining,
			Now:           m.now(),
		}))
		if m.lastErr != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render("Refresh failed: " + m.lastErr.Error()))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeadline(q models.Quotas) string {
	info := q.Primary()
	if info.Unlimited {
		return "Premium requests  ∞ unlimited"
	}
	used := models.ClampPct(models.GetPercentUsed(info)) / 100
	return "Premium requests  " + m.progress.ViewAs(used)
}

func (m Model) renderFooter() string {
	parts := []string{}
	if m.snapshot.IsFetching {
		parts = append(parts, m.spinner.View()+" refreshing")
	} else if !m.snapshot.FetchedAt.IsZero() {
		parts = append(parts, "updated "+display.FormatAge(m.snapshot.FetchedAt, m.now()))
	}
	parts = append(parts, keys.Refresh.Help().Key+" "+keys.Refresh.Help().Desc)
	parts = append(parts, keys.Quit.Help().Key+" "+keys.Quit.Help().Desc)
	return helpStyle.Render(strings.Join(parts, " · "))
}

func isNetworkError(err error) bool {
	var ne *github.NetworkError
	return errors.As(err, &ne)
}
