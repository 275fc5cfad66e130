// Package widget renders the latest quota to surfaces outside the main
// process: a status-bar JSON file, desktop notifications, and a small HTTP
// endpoint.
package widget

import (
	"fmt"
	"math"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

// SignInText is shown when there is no quota or no token.
const SignInText = "Sign in to view"

// View is everything a renderer needs. The zero value is the signed-out
// state.
type View struct {
	SignedIn    bool
	Username    string
	Plan        string
	UsedQuota   float64
	TotalQuota  float64
	PercentUsed float64
	Unlimited   bool
	ResetDate   time.Time
	LastUpdated time.Time
	Dark        bool
}

// Level is the widget colour band. Widgets key off usage: above 90% used is
// critical, 75% or more is warning.
func Level(percentUsed float64) models.QuotaStatus {
	switch {
	case percentUsed > 90:
		return models.StatusCritical
	case percentUsed >= 75:
		return models.StatusWarning
	default:
		return models.StatusGood
	}
}

// IsDark reports whether widgets use the dark palette. Only an explicit light
// preference turns it off.
func IsDark(theme store.Theme) bool {
	return theme != store.ThemeLight
}

// PrepareWidgetData builds the view for the primary quota. A nil quota
// yields the signed-out view.
func PrepareWidgetData(q *models.Quotas, username string, lastFetch time.Time, theme store.Theme) View {
	if q == nil {
		return View{Dark: IsDark(theme)}
	}
	p := q.Primary()
	return View{
		SignedIn:    true,
		Username:    username,
		Plan:        q.Plan,
		UsedQuota:   p.UsedQuota,
		TotalQuota:  p.TotalQuota,
		PercentUsed: models.GetPercentUsed(p),
		Unlimited:   p.Unlimited,
		ResetDate:   q.ResetDate,
		LastUpdated: lastFetch,
		Dark:        IsDark(theme),
	}
}

// Remaining may be negative in overage.
func (v View) Remaining() float64 {
	return v.TotalQuota - v.UsedQuota
}

func (v View) Level() models.QuotaStatus {
	if !v.SignedIn || v.Unlimited {
		return models.StatusGood
	}
	return Level(v.PercentUsed)
}

// Class is the CSS class status bars style the widget with.
func (v View) Class() string {
	if !v.SignedIn {
		return "signed-out"
	}
	return string(v.Level())
}

type palette struct {
	Text, Background, Good, Warning, Critical string
}

var (
	darkPalette  = palette{Text: "#ECEDEE", Background: "#151718", Good: "#22C55E", Warning: "#F97316", Critical: "#EF4444"}
	lightPalette = palette{Text: "#11181C", Background: "#FFFFFF", Good: "#22C55E", Warning: "#F97316", Critical: "#EF4444"}
)

func (v View) palette() palette {
	if v.Dark {
		return darkPalette
	}
	return lightPalette
}

// Color is the hex colour for the current level.
func (v View) Color() string {
	p := v.palette()
	switch v.Level() {
	case models.StatusCritical:
		return p.Critical
	case models.StatusWarning:
		return p.Warning
	default:
		return p.Good
	}
}

// Text is the one-line status-bar label.
func (v View) Text() string {
	if !v.SignedIn {
		return SignInText
	}
	if v.Unlimited {
		return "Copilot ∞"
	}
	return fmt.Sprintf("Copilot %d%%", int(math.Round(v.PercentUsed)))
}

// Tooltip is the multi-line detail text.
func (v View) Tooltip() string {
	if !v.SignedIn {
		return SignInText + ": run `copilotstatus auth login`"
	}
	s := fmt.Sprintf("%s used · %s left",
		humanize.Commaf(math.Round(v.UsedQuota)),
		humanize.Commaf(math.Round(v.Remaining())))
	if v.Unlimited {
		s = "Unlimited premium requests"
	}
	if v.Username != "" || !v.LastUpdated.IsZero() {
		s = v.footer() + "\n" + s
	}
	if !v.ResetDate.IsZero() {
		s += "\nResets " + v.ResetDate.Local().Format("Jan 2")
	}
	return s
}

func (v View) footer() string {
	updated := "never"
	if !v.LastUpdated.IsZero() {
		updated = v.LastUpdated.Local().Format("15:04")
	}
	if v.Username == "" {
		return updated
	}
	return v.Username + " - " + updated
}
