package logging

import (
	"bytes"
	"context"

	"github.com/charmbracelet/log"
)

// NewTestContext returns a background context carrying a logger configured
// from flags, plus the buffer it writes to. Output is plain logfmt without
// timestamps unless flags ask for JSON, so tests can match on key=value.
func NewTestContext(flags Flags) (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(buf)
	l.SetReportTimestamp(false)
	l.SetFormatter(log.LogfmtFormatter)
	Configure(l, flags)
	return WithLogger(context.Background(), l), buf
}
