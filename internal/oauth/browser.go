package oauth

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// LoginTimeout bounds how long Login waits for the browser callback.
const LoginTimeout = 2 * time.Minute

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	bold   = lipgloss.NewStyle().Bold(true)
)

// BrowserOpener opens a URL for the user.
type BrowserOpener func(url string)

// OpenBrowser tries to open a URL in the default browser.
func OpenBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}
	_ = cmd.Start()
}

func writeOpening(w io.Writer, url string) {
	_, _ = fmt.Fprintf(w, "Opening %s\n", bold.Render(url))
	_, _ = fmt.Fprintln(w, dim.Render("If the browser does not open, paste the URL above into it."))
}

func writeWaiting(w io.Writer) {
	_, _ = fmt.Fprintln(w, dim.Render("Waiting for browser authorization..."))
}

// WriteSuccess writes the standard sign-in success message.
func WriteSuccess(w io.Writer, username string) {
	msg := "✓ Signed in to GitHub"
	if username != "" {
		msg += " as " + username
	}
	_, _ = fmt.Fprintln(w, green.Render(msg))
}

func writeTimeout(w io.Writer) {
	_, _ = fmt.Fprintln(w, yellow.Render("⏱ Timeout waiting for authorization."))
}

func writeDenied(w io.Writer, reason string) {
	_, _ = fmt.Fprintln(w, red.Render("✗ Authorization denied: "+reason))
}

// LoginContext returns a context that is cancelled on SIGINT or after
// LoginTimeout, whichever comes first. Call cancel to clean up.
func LoginContext(parent context.Context) (context.Context, context.CancelFunc) {
	sigCtx, sigCancel := signal.NotifyContext(parent, os.Interrupt)
	ctx, cancel := context.WithTimeout(sigCtx, LoginTimeout)
	return ctx, func() { cancel(); sigCancel() }
}
