package models

import (
	"strconv"
	"time"
)

// Category identifies one quota bucket in a Copilot quota snapshot.
type Category string

const (
	CategoryPremium     Category = "premium_interactions"
	CategoryChat        Category = "chat"
	CategoryCompletions Category = "completions"
)

// Label returns the display name for the category.
func (c Category) Label() string {
	switch c {
	case CategoryPremium:
		return "Premium requests"
	case CategoryChat:
		return "Chat"
	case CategoryCompletions:
		return "Completions"
	default:
		return string(c)
	}
}

// QuotaStatus is derived from the remaining percentage; it is never stored.
type QuotaStatus string

const (
	StatusGood     QuotaStatus = "good"
	StatusWarning  QuotaStatus = "warning"
	StatusCritical QuotaStatus = "critical"
)

// QuotaInfo is the canonical quota record for a single category.
type QuotaInfo struct {
	Category         Category  `json:"type"`
	TotalQuota       float64   `json:"totalQuota"`
	UsedQuota        float64   `json:"usedQuota"`
	RemainingQuota   float64   `json:"remainingQuota"`
	RemainingPercent float64   `json:"remainingPercent"`
	ResetDate        time.Time `json:"resetDate"`
	Unlimited        bool      `json:"unlimited"`
	HasOverage       bool      `json:"hasOverage"`
	OverageCount     float64   `json:"overageCount"`
	OveragePermitted bool      `json:"overagePermitted,omitempty"`
}

// GetRemainingQuota returns total minus used. The result is negative when the
// account is in overage.
func GetRemainingQuota(q QuotaInfo) float64 {
	return q.TotalQuota - q.UsedQuota
}

// GetPercentRemaining returns the remaining share of the quota as a
// percentage. A zero total yields 0.
func GetPercentRemaining(q QuotaInfo) float64 {
	if q.TotalQuota == 0 {
		return 0
	}
	return (q.TotalQuota - q.UsedQuota) / q.TotalQuota * 100
}

// GetPercentUsed is the complement of GetPercentRemaining.
func GetPercentUsed(q QuotaInfo) float64 {
	if q.TotalQuota == 0 {
		return 0
	}
	return q.UsedQuota / q.TotalQuota * 100
}

// GetQuotaStatus maps a remaining percentage to a status. Boundary values
// belong to the lower tier: 50 is warning, 20 is critical.
func GetQuotaStatus(percentRemaining float64) QuotaStatus {
	if percentRemaining > 50 {
		return StatusGood
	}
	if percentRemaining > 20 {
		return StatusWarning
	}
	return StatusCritical
}

// Status returns the derived status for q. Unlimited quotas are always good.
func (q QuotaInfo) Status() QuotaStatus {
	if q.Unlimited {
		return StatusGood
	}
	return GetQuotaStatus(GetPercentRemaining(q))
}

// Quotas is the full quota view for one account.
type Quotas struct {
	Plan        string     `json:"plan,omitempty"`
	ResetDate   time.Time  `json:"resetDate"`
	Premium     QuotaInfo  `json:"premium_interactions"`
	Chat        *QuotaInfo `json:"chat,omitempty"`
	Completions *QuotaInfo `json:"completions,omitempty"`
}

// Primary returns the premium-interactions quota, which is the figure shown
// on the main screen and in widgets.
func (q Quotas) Primary() QuotaInfo {
	return q.Premium
}

// All returns the categories present, premium first.
func (q Quotas) All() []QuotaInfo {
	out := []QuotaInfo{q.Premium}
	if q.Chat != nil {
		out = append(out, *q.Chat)
	}
	if q.Completions != nil {
		out = append(out, *q.Completions)
	}
	return out
}

// TimeUntilReset returns the time left until the quota period rolls over,
// clamped at zero. Returns nil when the reset date is unknown.
func (q Quotas) TimeUntilReset(now time.Time) *time.Duration {
	if q.ResetDate.IsZero() {
		return nil
	}
	d := q.ResetDate.Sub(now)
	if d < 0 {
		d = 0
	}
	return &d
}

// FormatResetCountdown formats a duration as a compact countdown string
// (e.g. "2d 3h", "5h 42m", "15m").
func FormatResetCountdown(d *time.Duration) string {
	if d == nil {
		return ""
	}
	total := int(d.Seconds())
	if total <= 0 {
		return "now"
	}
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	if days > 0 {
		return formatDH(days, hours)
	}
	if hours > 0 {
		return formatHM(hours, minutes)
	}
	return formatM(minutes)
}

func formatDH(d, h int) string { return strconv.Itoa(d) + "d " + strconv.Itoa(h) + "h" }
func formatHM(h, m int) string { return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m" }
func formatM(m int) string     { return strconv.Itoa(m) + "m" }
