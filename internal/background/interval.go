package background

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interval is the background refresh period in minutes. Zero means never.
type Interval int

const (
	Never   Interval = 0
	Every5  Interval = 5
	Every15 Interval = 15
	Every30 Interval = 30
	Every60 Interval = 60
)

// DefaultInterval applies when no interval was ever chosen.
const DefaultInterval = Every15

// Intervals lists the allowed values in display order.
var Intervals = []Interval{Never, Every5, Every15, Every30, Every60}

func (i Interval) Valid() bool {
	for _, v := range Intervals {
		if i == v {
			return true
		}
	}
	return false
}

func (i Interval) Duration() time.Duration {
	return time.Duration(i) * time.Minute
}

// String is the flag form: "never" or "<n>m".
func (i Interval) String() string {
	if i == Never {
		return "never"
	}
	return fmt.Sprintf("%dm", int(i))
}

// Label is the human form used in prompts and status output.
func (i Interval) Label() string {
	switch i {
	case Never:
		return "Never"
	case Every60:
		return "Every hour"
	default:
		return fmt.Sprintf("Every %d minutes", int(i))
	}
}

// ParseInterval accepts "never", "0", a bare number of minutes, or a Go
// duration such as "15m" or "1h". Only the allowed intervals are accepted.
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "never" || s == "off" {
		return Never, nil
	}

	var minutes int
	if n, err := strconv.Atoi(s); err == nil {
		minutes = n
	} else if d, derr := time.ParseDuration(s); derr == nil && d%time.Minute == 0 {
		minutes = int(d / time.Minute)
	} else {
		return Never, fmt.Errorf("invalid interval %q: use never, 5m, 15m, 30m, or 60m", s)
	}

	i := Interval(minutes)
	if !i.Valid() {
		return Never, fmt.Errorf("invalid interval %q: use never, 5m, 15m, 30m, or 60m", s)
	}
	return i, nil
}
