package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/app"
	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
	"github.com/joshuadavidthomas/copilotstatus/internal/quota"
)

var statuslineMode string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current Copilot quota",
	Long: `Show the current Copilot quota.

Cached data younger than the stale time is shown without a request. Older
data is refreshed; if the refresh fails the cached copy is shown with a
notice. Use --refresh to require fresh data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch statuslineMode {
		case "", string(display.StatuslineModeShort), string(display.StatuslineModePretty):
		default:
			return fmt.Errorf("unknown line mode %q (want short or pretty)", statuslineMode)
		}
		return runStatus(cmd.Context(), statuslineMode)
	},
}

func init() {
	statusCmd.Flags().StringVar(&statuslineMode, "line", "", "Print a single line: short or pretty")
}

func runStatus(ctx context.Context, lineMode string) error {
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	ok, err := a.CheckAuth(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if isMachine() {
			_ = outputData(display.ErrorJSON{Error: quota.ErrNotAuthenticated.Error()})
		} else if !quiet {
			outln(display.RenderSignedOut())
		}
		return quota.ErrNotAuthenticated
	}

	snap, err := loadQuota(ctx, a)
	if err != nil {
		return err
	}

	q := *snap.Data
	switch {
	case isMachine():
		return outputData(display.NewStatusJSON(q, username(ctx, a), snap.FetchedAt, snap.IsCached))
	case quiet && lineMode == "":
		outln(display.RenderStatusline(q, display.StatuslineOptions{Mode: display.StatuslineModeShort, NoColor: true}))
	case lineMode != "":
		outln(display.RenderStatusline(q, display.StatuslineOptions{Mode: display.StatuslineMode(lineMode), NoColor: noColor}))
	default:
		outln(display.RenderQuota(q, display.QuotaOptions{
			Username:      username(ctx, a),
			FetchedAt:     snap.FetchedAt,
			Cached:        snap.IsCached,
			ShowRemaining: a.Config.Display.ShowRemaining,
		}))
	}
	return nil
}

// loadQuota revalidates the cache and falls back to cached data when the
// refresh fails, unless --refresh was given.
func loadQuota(ctx context.Context, a *app.App) (querycache.Snapshot, error) {
	logger := logging.FromContext(ctx)

	trigger := querycache.TriggerInterval
	if refresh {
		trigger = querycache.TriggerManual
	}

	var (
		snap querycache.Snapshot
		err  error
	)
	revalidate := func() error {
		snap, _, err = a.Cache.Revalidate(ctx, trigger)
		return nil
	}
	if display.SpinnerShouldShow(quiet, isMachine(), !display.IsTerminal(os.Stdout)) && a.Cache.IsStale() {
		if serr := display.WithSpinner("Fetching Copilot quota...", revalidate); serr != nil {
			return querycache.Snapshot{}, serr
		}
	} else {
		_ = revalidate()
	}

	if err != nil {
		if refresh || snap.Data == nil || errors.Is(err, quota.ErrNotAuthenticated) {
			return querycache.Snapshot{}, err
		}
		logger.Warn("refresh failed, showing cached data", "err", err)
	}
	if snap.Data == nil {
		return querycache.Snapshot{}, errors.New("no quota data available")
	}
	return snap, nil
}
