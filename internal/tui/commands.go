package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
)

func revalidateCmd(ctx context.Context, cache *querycache.Cache, trigger querycache.Trigger) tea.Cmd {
	return func() tea.Msg {
		snap, fetched, err := cache.Revalidate(ctx, trigger)
		return fetchDoneMsg{trigger: trigger, snapshot: snap, fetched: fetched, err: err}
	}
}

func tickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		return nil
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForChange(changes <-chan struct{}) tea.Cmd {
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return mirrorChangedMsg{}
	}
}

func loadMirrorCmd(ctx context.Context, mirror MirrorSource) tea.Cmd {
	return func() tea.Msg {
		q, at, err := mirror.LoadQuota(ctx)
		return mirrorLoadedMsg{quotas: q, fetchedAt: at, err: err}
	}
}
