package display

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// FormatCount renders a request count with thousands separators.
func FormatCount(v float64) string {
	return humanize.Commaf(math.Round(v))
}

// FormatAge describes how long ago t was, relative to now.
func FormatAge(t, now time.Time) string {
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// CachedBanner is the notice shown when the data on screen is stale.
func CachedBanner(fetchedAt, now time.Time) string {
	return "using cached data · updated " + FormatAge(fetchedAt, now)
}

// FormatResetLine returns "Resets Feb 1 (in 2d 3h)", or "" when the reset
// date is unknown.
func FormatResetLine(q models.Quotas, now time.Time) string {
	d := q.TimeUntilReset(now)
	if d == nil {
		return ""
	}
	line := "Resets " + q.ResetDate.Local().Format("Jan 2")
	if *d > 0 {
		line += " (in " + models.FormatResetCountdown(d) + ")"
	}
	return line
}
