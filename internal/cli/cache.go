package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/querycache"
)

// CacheJSON is the machine-readable form of `cache show`.
type CacheJSON struct {
	Key       string     `json:"key" yaml:"key"`
	Present   bool       `json:"present" yaml:"present"`
	FetchedAt *time.Time `json:"fetched_at,omitempty" yaml:"fetched_at,omitempty"`
	Stale     bool       `json:"stale" yaml:"stale"`
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persisted quota cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the cached quota entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		snap := a.Cache.Snapshot()
		res := CacheJSON{Key: querycache.Key, Present: snap.Data != nil, Stale: snap.IsStale}
		if snap.Data != nil {
			fetchedAt := snap.FetchedAt
			res.FetchedAt = &fetchedAt
		}

		if isMachine() {
			return outputData(res)
		}
		if !res.Present {
			outln("Cache is empty")
			return nil
		}
		state := "fresh"
		if res.Stale {
			state = "stale"
		}
		out("Key:      %s\n", res.Key)
		out("Updated:  %s\n", display.FormatAge(snap.FetchedAt, time.Now()))
		out("State:    %s\n", state)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached quota entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		withHistory, _ := cmd.Flags().GetBool("history")

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		errs := []error{a.Cache.Clear(ctx), a.Store.ClearQuota(ctx)}
		if withHistory {
			errs = append(errs, a.Store.ClearHistory(ctx))
		}
		if err := errors.Join(errs...); err != nil {
			return err
		}

		if isMachine() {
			return outputData(ActionResultJSON{Success: true, Message: "cache cleared"})
		}
		if !quiet {
			outln("✓ Cache cleared")
		}
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().Bool("history", false, "Also delete recorded usage history")

	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
