package display

import (
	"encoding/json"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joshuadavidthomas/copilotstatus/internal/models"
)

// QuotaJSON is one category in machine-readable output.
type QuotaJSON struct {
	Category         string  `json:"category" yaml:"category"`
	Label            string  `json:"label" yaml:"label"`
	Total            float64 `json:"total" yaml:"total"`
	Used             float64 `json:"used" yaml:"used"`
	Remaining        float64 `json:"remaining" yaml:"remaining"`
	PercentRemaining float64 `json:"percent_remaining" yaml:"percent_remaining"`
	Status           string  `json:"status" yaml:"status"`
	Unlimited        bool    `json:"unlimited" yaml:"unlimited"`
	HasOverage       bool    `json:"has_overage" yaml:"has_overage"`
	OverageCount     float64 `json:"overage_count,omitempty" yaml:"overage_count,omitempty"`
}

// StatusJSON is the machine-readable form of the status command.
type StatusJSON struct {
	Username  string      `json:"username,omitempty" yaml:"username,omitempty"`
	Plan      string      `json:"plan,omitempty" yaml:"plan,omitempty"`
	ResetDate string      `json:"reset_date,omitempty" yaml:"reset_date,omitempty"`
	FetchedAt string      `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	Cached    bool        `json:"cached" yaml:"cached"`
	Quotas    []QuotaJSON `json:"quotas" yaml:"quotas"`
}

// ErrorJSON wraps a failure for machine-readable output.
type ErrorJSON struct {
	Error string `json:"error" yaml:"error"`
}

// NewQuotaJSON converts one category.
func NewQuotaJSON(q models.QuotaInfo) QuotaJSON {
	return QuotaJSON{
		Category:         string(q.Category),
		Label:            q.Category.Label(),
		Total:            q.TotalQuota,
		Used:             q.UsedQuota,
		Remaining:        models.GetRemainingQuota(q),
		PercentRemaining: models.GetPercentRemaining(q),
		Status:           string(q.Status()),
		Unlimited:        q.Unlimited,
		HasOverage:       q.HasOverage,
		OverageCount:     q.OverageCount,
	}
}

// NewStatusJSON converts a quota view.
func NewStatusJSON(q models.Quotas, username string, fetchedAt time.Time, cached bool) StatusJSON {
	out := StatusJSON{
		Username: username,
		Plan:     q.Plan,
		Cached:   cached,
	}
	if !q.ResetDate.IsZero() {
		out.ResetDate = q.ResetDate.UTC().Format(time.RFC3339)
	}
	if !fetchedAt.IsZero() {
		out.FetchedAt = fetchedAt.UTC().Format(time.RFC3339)
	}
	for _, info := range q.All() {
		out.Quotas = append(out.Quotas, NewQuotaJSON(info))
	}
	return out
}

// OutputJSON writes pretty-printed JSON to the given writer.
func OutputJSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// OutputYAML writes data as a YAML document.
func OutputYAML(w io.Writer, data any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// Format selects a machine-readable encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Output writes data in the given machine-readable format. FormatText is
// not handled here.
func Output(w io.Writer, f Format, data any) error {
	if f == FormatYAML {
		return OutputYAML(w, data)
	}
	return OutputJSON(w, data)
}
