// Package display renders quotas for the terminal: lipgloss panels, the
// one-line status form, JSON and YAML documents, and history charts.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	greenStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	yellowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	redStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	bannerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Italic(true)
)

func colorStyle(color string) lipgloss.Style {
	switch color {
	case "green":
		return greenStyle
	case "yellow":
		return yellowStyle
	case "red":
		return redStyle
	default:
		return lipgloss.NewStyle()
	}
}

// StatusColor maps a quota status to the color name used by RenderBar.
func StatusColor(s models.QuotaStatus) string {
	switch s {
	case models.StatusGood:
		return "green"
	case models.StatusWarning:
		return "yellow"
	default:
		return "red"
	}
}

// RenderBar draws a percent-used bar of the given width.
func RenderBar(percentUsed int, width int, color string) string {
	filled := max(0, min(percentUsed*width/100, width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return colorStyle(color).Render(bar)
}

// QuotaOptions configures RenderQuota.
type QuotaOptions struct {
	Username  string
	FetchedAt time.Time
	// Cached shows the "using cached data" banner.
	Cached bool
	// ShowRemaining prints the remaining percentage instead of the used one.
	ShowRemaining bool
	// Now defaults to time.Now.
	Now time.Time
}

func (o QuotaOptions) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// RenderQuota renders the full quota view: title, account metadata, the
// cached banner when applicable, and a "Usage" panel with one row per
// category.
func RenderQuota(q models.Quotas, opts QuotaOptions) string {
	var out strings.Builder
	now := opts.now()

	out.WriteString(titleStyle.Render("GitHub Copilot"))
	out.WriteByte('\n')

	if meta := renderMetaLines(q, opts.Username); meta != "" {
		out.WriteString(meta)
		out.WriteByte('\n')
	}

	if opts.Cached && !opts.FetchedAt.IsZero() {
		out.WriteByte('\n')
		out.WriteString(bannerStyle.Render(CachedBanner(opts.FetchedAt, now)))
		out.WriteByte('\n')
	}

	out.WriteByte('\n')
	out.WriteString(renderUsagePanel(q, opts.ShowRemaining, now))
	return out.String()
}

func renderMetaLines(q models.Quotas, username string) string {
	type labeledField struct {
		label string
		value string
	}

	var fields []labeledField
	if username != "" {
		fields = append(fields, labeledField{"Account", username})
	}
	if q.Plan != "" {
		fields = append(fields, labeledField{"Plan", q.Plan})
	}
	if len(fields) == 0 {
		return ""
	}

	maxLabel := 0
	for _, f := range fields {
		maxLabel = max(maxLabel, len(f.label))
	}
	lines := make([]string, len(fields))
	for i, f := range fields {
		pad := strings.Repeat(" ", maxLabel-len(f.label))
		lines[i] = dimStyle.Render(f.label) + pad + "  " + f.value
	}
	return strings.Join(lines, "\n")
}

func renderUsagePanel(q models.Quotas, showRemaining bool, now time.Time) string {
	var b strings.Builder
	b.WriteString(buildQuotaTable(q.All(), showRemaining))

	if reset := FormatResetLine(q, now); reset != "" {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render(reset))
	}
	return renderTitledPanel(titleStyle.Render("Usage"), b.String(), 0)
}

// buildQuotaTable renders each category as a borderless single-row table so
// the overage sub-line can sit directly under its row.
func buildQuotaTable(quotas []models.QuotaInfo, showRemaining bool) string {
	nameWidth := 0
	for _, info := range quotas {
		nameWidth = max(nameWidth, len(info.Category.Label()))
	}

	styleFunc := func(_ int, col int) lipgloss.Style {
		switch col {
		case 0:
			return lipgloss.NewStyle().Width(nameWidth)
		case 2:
			return lipgloss.NewStyle().Align(lipgloss.Right).Width(4)
		case 3:
			return lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		}
		return lipgloss.NewStyle()
	}

	var lines []string
	for _, info := range quotas {
		color := StatusColor(info.Status())
		used := int(models.ClampPct(models.GetPercentUsed(info)))

		var bar, pct, detail string
		if info.Unlimited {
			bar = RenderBar(0, 20, color)
			pct = colorStyle(color).Render("∞")
			detail = "unlimited"
		} else {
			bar = RenderBar(used, 20, color)
			shown := used
			if showRemaining {
				shown = int(models.ClampPct(models.GetPercentRemaining(info)))
			}
			pct = colorStyle(color).Render(fmt.Sprintf("%d%%", shown))
			detail = FormatCount(info.UsedQuota) + " / " + FormatCount(info.TotalQuota)
		}

		t := table.New().
			Border(lipgloss.HiddenBorder()).
			StyleFunc(styleFunc).
			Row(info.Category.Label(), bar, pct, detail)
		lines = append(lines, cleanTableOutput(t.Render()))

		if info.HasOverage {
			lines = append(lines, redStyle.Render(fmt.Sprintf("  %s over quota", FormatCount(info.OverageCount))))
		}
	}
	return strings.Join(lines, "\n")
}

// cleanTableOutput strips the single leading border space and trailing
// whitespace from each rendered line and drops empty lines.
func cleanTableOutput(rendered string) string {
	var cleaned []string
	for _, line := range strings.Split(rendered, "\n") {
		line = strings.TrimPrefix(line, " ")
		line = strings.TrimRight(line, " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

func renderTitledPanel(title string, body string, minWidth int) string {
	lines := strings.Split(body, "\n")

	bodyWidth := minWidth
	for _, line := range lines {
		bodyWidth = max(bodyWidth, lipgloss.Width(line))
	}

	innerWidth := max(bodyWidth+2, lipgloss.Width(title)+1)
	top := separatorStyle.Render("╭─") + title + separatorStyle.Render(strings.Repeat("─", max(0, innerWidth-lipgloss.Width(title)-1))+"╮")
	bottom := separatorStyle.Render("╰" + strings.Repeat("─", innerWidth) + "╯")

	rows := make([]string, 0, len(lines)+2)
	rows = append(rows, top)
	for _, line := range lines {
		pad := strings.Repeat(" ", max(0, bodyWidth-lipgloss.Width(line)))
		rows = append(rows, separatorStyle.Render("│")+" "+line+pad+" "+separatorStyle.Render("│"))
	}
	rows = append(rows, bottom)

	return strings.Join(rows, "\n")
}

// RenderSignedOut is shown in place of quotas when no token is stored.
func RenderSignedOut() string {
	return dimStyle.Render("Not signed in. Run `copilotstatus auth login` to connect your GitHub account.")
}

// RenderError renders a fetch failure. Authentication failures get a hint.
func RenderError(err error) string {
	msg := err.Error()
	line := redStyle.Render("✗ ") + msg
	if isCredentialError(msg) {
		line += dimStyle.Render("  (copilotstatus auth login)")
	}
	return line
}

func isCredentialError(msg string) bool {
	lower := strings.ToLower(msg)
	for _, s := range []string{"not signed in", "authentication failed", "bad credentials", "token"} {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
