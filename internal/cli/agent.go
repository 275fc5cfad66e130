package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/background"
	"github.com/joshuadavidthomas/copilotstatus/internal/logging"
)

// AgentStatusJSON is the machine-readable form of `agent status`.
type AgentStatusJSON struct {
	Service              string `json:"service" yaml:"service"`
	Status               string `json:"status" yaml:"status"`
	FetchIntervalMinutes int    `json:"fetch_interval_minutes" yaml:"fetch_interval_minutes"`
}

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Manage the background refresh agent",
}

var agentInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the agent as a user service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		interval := background.DefaultInterval
		if raw, _ := cmd.Flags().GetString("interval"); raw != "" {
			if interval, err = background.ParseInterval(raw); err != nil {
				return err
			}
		} else if minutes, err := a.Store.FetchIntervalMinutes(ctx); err == nil && minutes > 0 {
			interval = background.Interval(minutes)
		}

		if err := a.SetFetchInterval(ctx, interval); err != nil {
			return err
		}
		if isMachine() {
			return outputData(ActionResultJSON{Success: true, Message: "refresh " + interval.Label()})
		}
		if !quiet {
			if interval == background.Never {
				outln("✓ Background refresh disabled")
			} else {
				out("✓ Background agent installed (%s)\n", interval.Label())
			}
		}
		return nil
	},
}

var agentUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the agent service",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.SetFetchInterval(ctx, background.Never); err != nil {
			return err
		}
		if isMachine() {
			return outputData(ActionResultJSON{Success: true, Message: "agent removed"})
		}
		if !quiet {
			outln("✓ Background agent removed")
		}
		return nil
	},
}

var agentStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the agent is installed and running",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		st, err := a.Registrar.Status()
		if err != nil {
			logging.FromContext(ctx).Debug("querying service status failed", "err", err)
		}
		minutes, _ := a.Store.FetchIntervalMinutes(ctx)

		res := AgentStatusJSON{Service: background.ServiceName, Status: string(st), FetchIntervalMinutes: minutes}
		if isMachine() {
			return outputData(res)
		}
		if quiet {
			outln(res.Status)
			return nil
		}
		out("Agent:     %s\n", res.Status)
		out("Interval:  %s\n", background.Interval(minutes).Label())
		return nil
	},
}

var agentRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent in the foreground (used by the service manager)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		raw, _ := cmd.Flags().GetString("interval")
		once, _ := cmd.Flags().GetBool("once")

		interval := background.DefaultInterval
		if raw != "" {
			var err error
			if interval, err = background.ParseInterval(raw); err != nil {
				return err
			}
		}
		if interval == background.Never && !once {
			return errors.New("the agent cannot run with interval never")
		}

		logger := logging.NewAgentLogger(os.Stderr)
		if verbose {
			logging.Configure(logger, logging.Flags{Verbose: true, NoColor: noColor})
		}
		ctx = logging.WithLogger(ctx, logger)

		a, err := newApp(ctx, appConfig(), logger)
		if err != nil {
			return fmt.Errorf("opening app: %w", err)
		}
		defer closeApp(ctx, a)

		if once {
			if res := a.Agent.Task.Run(ctx); res != background.ResultSuccess {
				return errors.New("background refresh failed")
			}
			return nil
		}

		a.Agent.Interval = interval.Duration()
		a.Agent.Logger = logger
		if service.Interactive() {
			a.Agent.Run(ctx)
			return nil
		}

		svc, err := background.NewRegistrar(a.Agent).Service(interval)
		if err != nil {
			return err
		}
		return svc.Run()
	},
}

func init() {
	agentInstallCmd.Flags().String("interval", "", "Refresh interval: 5, 15, 30, or 60 minutes (default: saved setting or 15)")
	agentRunCmd.Flags().String("interval", "", "Refresh interval")
	agentRunCmd.Flags().Bool("once", false, "Refresh once and exit")

	agentCmd.AddCommand(agentInstallCmd)
	agentCmd.AddCommand(agentUninstallCmd)
	agentCmd.AddCommand(agentStatusCmd)
	agentCmd.AddCommand(agentRunCmd)
}
