package tui

import (
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
)

// fetchDoneMsg carries the outcome of a revalidation.
type fetchDoneMsg struct {
	trigger  querycache.Trigger
	snapshot querycache.Snapshot
	fetched  bool
	err      error
}

// tickMsg fires on the refresh interval.
type tickMsg time.Time

// mirrorChangedMsg is sent when the store file changes on disk.
type mirrorChangedMsg struct{}

// mirrorLoadedMsg carries quotas read back from the store after a change.
type mirrorLoadedMsg struct {
	quotas    *models.Quotas
	fetchedAt time.Time
	err       error
}
