package github

import (
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// UserResponse is the subset of GET /user the app consumes.
type UserResponse struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// CopilotUserResponse is GET /copilot_internal/user. Current accounts report
// per-category quota_snapshots; older accounts report a single flat quota
// at the top level.
type CopilotUserResponse struct {
	CopilotPlan       string          `json:"copilot_plan,omitempty"`
	AccessTypeSKU     string          `json:"access_type_sku,omitempty"`
	QuotaResetDate    string          `json:"quota_reset_date,omitempty"`
	QuotaResetDateUTC string          `json:"quota_reset_date_utc,omitempty"`
	QuotaSnapshots    *QuotaSnapshots `json:"quota_snapshots,omitempty"`

	// Flat single-category payload.
	QuotaSnapshot
}

// QuotaSnapshots holds one snapshot per category.
type QuotaSnapshots struct {
	PremiumInteractions *QuotaSnapshot `json:"premium_interactions,omitempty"`
	Chat                *QuotaSnapshot `json:"chat,omitempty"`
	Completions         *QuotaSnapshot `json:"completions,omitempty"`
}

// QuotaSnapshot is one category as reported by the API. Remaining is a
// pointer because its absence selects the percentage-based schema.
type QuotaSnapshot struct {
	Entitlement      *float64 `json:"entitlement,omitempty"`
	Remaining        *float64 `json:"remaining,omitempty"`
	PercentRemaining *float64 `json:"percent_remaining,omitempty"`
	OverageCount     float64  `json:"overage_count,omitempty"`
	OveragePermitted bool     `json:"overage_permitted,omitempty"`
	Unlimited        bool     `json:"unlimited,omitempty"`
	QuotaID          string   `json:"quota_id,omitempty"`
}

func (s QuotaSnapshot) present() bool {
	return s.Entitlement != nil || s.PercentRemaining != nil || s.Remaining != nil || s.Unlimited
}

// snapshotSchema tags which wire era a snapshot belongs to.
type snapshotSchema int

const (
	// percentSchema reports only percent_remaining.
	percentSchema snapshotSchema = iota
	// remainingSchema reports an explicit remaining count.
	remainingSchema
)

func (s QuotaSnapshot) schema() snapshotSchema {
	if s.Remaining != nil {
		return remainingSchema
	}
	return percentSchema
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// normalizeSnapshot maps one wire snapshot to the canonical record using the
// derivation rule of its schema.
func normalizeSnapshot(cat models.Category, s QuotaSnapshot, info models.QuotaInfo) models.QuotaInfo {
	total := deref(s.Entitlement)
	info.Category = cat
	info.TotalQuota = total
	info.Unlimited = s.Unlimited
	info.OverageCount = s.OverageCount
	info.HasOverage = s.OverageCount > 0
	info.OveragePermitted = s.OveragePermitted

	switch s.schema() {
	case remainingSchema:
		info.RemainingQuota = *s.Remaining
		info.UsedQuota = total - *s.Remaining
		if s.PercentRemaining != nil {
			info.RemainingPercent = *s.PercentRemaining
		} else {
			info.RemainingPercent = models.GetPercentRemaining(info)
		}
	case percentSchema:
		pct := deref(s.PercentRemaining)
		info.UsedQuota = total * (1 - pct/100)
		info.RemainingQuota = total - info.UsedQuota
		info.RemainingPercent = pct
	}

	return info
}

// Normalize converts the API payload into canonical quotas.
func Normalize(resp CopilotUserResponse) (models.Quotas, error) {
	resetRaw := resp.QuotaResetDateUTC
	if resetRaw == "" {
		resetRaw = resp.QuotaResetDate
	}
	base := models.QuotaInfo{ResetDate: models.ParseRFC3339(resetRaw)}

	q := models.Quotas{Plan: resp.CopilotPlan, ResetDate: base.ResetDate}

	if snaps := resp.QuotaSnapshots; snaps != nil {
		if snaps.PremiumInteractions == nil {
			return models.Quotas{}, errMissingPremium
		}
		q.Premium = normalizeSnapshot(models.CategoryPremium, *snaps.PremiumInteractions, base)
		if snaps.Chat != nil {
			chat := normalizeSnapshot(models.CategoryChat, *snaps.Chat, base)
			q.Chat = &chat
		}
		if snaps.Completions != nil {
			completions := normalizeSnapshot(models.CategoryCompletions, *snaps.Completions, base)
			q.Completions = &completions
		}
		return q, nil
	}

	if !resp.QuotaSnapshot.present() {
		return models.Quotas{}, errMissingPremium
	}
	q.Premium = normalizeSnapshot(models.CategoryPremium, resp.QuotaSnapshot, base)
	return q, nil
}
