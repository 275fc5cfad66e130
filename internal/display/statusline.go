package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// StatuslineMode determines the output format for the one-line view.
type StatuslineMode string

const (
	StatuslineModePretty StatuslineMode = "pretty"
	StatuslineModeShort  StatuslineMode = "short"
)

// StatuslineOptions configures RenderStatusline.
type StatuslineOptions struct {
	Mode    StatuslineMode
	NoColor bool
	Now     time.Time
}

// RenderStatusline renders the premium quota on one line, e.g.
// "Copilot 42% · 580 left · resets 3d 2h". Pretty mode adds a bar.
func RenderStatusline(q models.Quotas, opts StatuslineOptions) string {
	info := q.Primary()
	color := StatusColor(info.Status())
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	parts := []string{}
	if info.Unlimited {
		parts = append(parts, "Copilot ∞")
	} else {
		used := int(models.ClampPct(models.GetPercentUsed(info)))
		pct := fmt.Sprintf("%d%%", used)
		if !opts.NoColor {
			pct = colorStyle(color).Render(pct)
		}
		head := "Copilot " + pct
		if opts.Mode == StatuslineModePretty {
			filled := used * 10 / 100
			bar := strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
			if !opts.NoColor {
				bar = colorStyle(color).Render(bar)
			}
			head = "Copilot " + bar + " " + pct
		}
		parts = append(parts, head)
		parts = append(parts, FormatCount(max(0, models.GetRemainingQuota(info)))+" left")
	}

	if d := q.TimeUntilReset(now); d != nil {
		parts = append(parts, "resets "+models.FormatResetCountdown(d))
	}
	return strings.Join(parts, " · ")
}
