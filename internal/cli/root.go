package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/app"
	"github.com/joshuadavidthomas/copilotstatus/internal/config"
	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
	"github.com/joshuadavidthomas/copilotstatus/internal/tui"
)

// version is injected at build time via -ldflags.
var version = "dev"

var (
	jsonOutput   bool
	outputFormat string
	noColor      bool
	verbose      bool
	quiet        bool
	refresh      bool
)

var rootCmd = &cobra.Command{
	Use:          "copilotstatus",
	Short:        "Show your GitHub Copilot quota",
	Long:         "Shows GitHub Copilot premium request, chat, and completion quotas, keeps a status-bar widget current, and refreshes in the background.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose && quiet {
			verbose = false
		}
		switch outputFormat {
		case "", string(display.FormatText), string(display.FormatJSON), string(display.FormatYAML):
		default:
			return fmt.Errorf("unknown output format %q (want text, json, or yaml)", outputFormat)
		}

		l := newConfiguredLogger()
		ctx := logging.WithLogger(cmd.Context(), l)
		cmd.SetContext(ctx)

		// Load config from disk so malformed files surface a warning.
		if _, err := config.Init(); err != nil {
			l.Warn("config or .env file is malformed, ignoring it", "err", err)
		}
		return nil
	},
	RunE: runDashboard,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "Output format: text, json, or yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	rootCmd.PersistentFlags().BoolVarP(&refresh, "refresh", "r", false, "Ignore cached data: fresh data or error")
	rootCmd.Flags().Bool("version", false, "Show version and exit")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(widgetCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

// ExecuteContext runs the root command with the given context.
// Commands access it via cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// newApp builds the application for a command. Tests replace it.
var newApp = func(ctx context.Context, cfg config.Config, logger *log.Logger) (*app.App, error) {
	return app.New(ctx, cfg, logger)
}

func appConfig() config.Config {
	return config.Get()
}

func openApp(ctx context.Context) (*app.App, error) {
	a, err := newApp(ctx, appConfig(), logging.FromContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("opening app: %w", err)
	}
	return a, nil
}

func closeApp(ctx context.Context, a *app.App) {
	if err := a.Close(); err != nil {
		logging.FromContext(ctx).Debug("closing app failed", "err", err)
	}
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if v, _ := cmd.Flags().GetBool("version"); v {
		out("copilotstatus %s\n", version)
		return nil
	}

	if machineFormat() != display.FormatText || quiet || !display.IsTerminal(os.Stdout) {
		return runStatus(cmd.Context(), statuslineMode)
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer closeApp(ctx, a)

	opts := tui.Options{
		Cache:         a.Cache,
		Mirror:        a.Store,
		Username:      username(ctx, a),
		Interval:      a.Config.StaleTime(),
		ShowRemaining: a.Config.Display.ShowRemaining,
	}
	if a.Store != nil {
		w, err := tui.NewWatcher(a.Store.Path(), logging.FromContext(ctx))
		if err != nil {
			logging.FromContext(ctx).Debug("watching store failed", "err", err)
		} else {
			defer func() { _ = w.Close() }()
			opts.Changes = w.Changes()
		}
	}
	return tui.Run(ctx, opts)
}

// username prefers the stored login and falls back to the mirror.
func username(ctx context.Context, a *app.App) string {
	if u, err := a.Tokens.GetUsername(ctx); err == nil && u != "" {
		return u
	}
	if a.Store != nil {
		if u, err := a.Store.Username(ctx); err == nil {
			return u
		}
	}
	return ""
}
