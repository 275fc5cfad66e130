package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joshuadavidthomas/copilotstatus/internal/display"
)

// outWriter is the writer used for all command output.
// Tests can replace this to capture output.
var outWriter io.Writer = os.Stdout

// out prints formatted output to the configured writer.
func out(format string, a ...any) {
	_, _ = fmt.Fprintf(outWriter, format, a...)
}

// outln prints a line to the configured writer.
func outln(a ...any) {
	_, _ = fmt.Fprintln(outWriter, a...)
}

// machineFormat resolves --json and --output. --json wins.
func machineFormat() display.Format {
	if jsonOutput {
		return display.FormatJSON
	}
	switch display.Format(outputFormat) {
	case display.FormatJSON, display.FormatYAML:
		return display.Format(outputFormat)
	}
	return display.FormatText
}

// outputData writes data in the selected machine-readable format.
func outputData(data any) error {
	return display.Output(outWriter, machineFormat(), data)
}

func isMachine() bool {
	return machineFormat() != display.FormatText
}
