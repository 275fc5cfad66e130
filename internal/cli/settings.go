package cli

import (
	"context"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/app"
	"github.com/joshuadavidthomas/copilotstatus/internal/background"
	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/prompt"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

// SettingsJSON is the machine-readable form of `settings`.
type SettingsJSON struct {
	Theme                string `json:"theme" yaml:"theme"`
	FetchIntervalMinutes int    `json:"fetch_interval_minutes" yaml:"fetch_interval_minutes"`
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the widget theme and background refresh interval",
	Long: `Show or change the widget theme and background refresh interval.

With no flags on a terminal you are prompted for both. Changing the interval
reinstalls the background agent; "never" removes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		themeFlag, _ := cmd.Flags().GetString("theme")
		intervalFlag, _ := cmd.Flags().GetString("interval")
		interactive := themeFlag == "" && intervalFlag == "" && !isMachine() && display.IsTerminal(os.Stdin)

		if interactive {
			current, err := currentSettings(ctx, a)
			if err != nil {
				return err
			}
			if themeFlag, err = promptTheme(store.Theme(current.Theme)); err != nil {
				return err
			}
			if intervalFlag, err = promptInterval(background.Interval(current.FetchIntervalMinutes)); err != nil {
				return err
			}
			// Unchanged answers are not reapplied.
			if themeFlag == current.Theme {
				themeFlag = ""
			}
			if intervalFlag == strconv.Itoa(current.FetchIntervalMinutes) {
				intervalFlag = ""
			}
		}

		if themeFlag != "" {
			t, err := store.ParseTheme(themeFlag)
			if err != nil {
				return err
			}
			if err := a.SetTheme(ctx, t); err != nil {
				return err
			}
		}
		if intervalFlag != "" {
			i, err := background.ParseInterval(intervalFlag)
			if err != nil {
				return err
			}
			if err := a.SetFetchInterval(ctx, i); err != nil {
				return err
			}
		}

		current, err := currentSettings(ctx, a)
		if err != nil {
			return err
		}
		if isMachine() {
			return outputData(current)
		}
		if quiet {
			return nil
		}
		out("Theme:             %s\n", current.Theme)
		out("Refresh interval:  %s\n", background.Interval(current.FetchIntervalMinutes).Label())
		return nil
	},
}

func init() {
	settingsCmd.Flags().String("theme", "", "Widget theme: light, dark, or system")
	settingsCmd.Flags().String("interval", "", "Background refresh: never, 5, 15, 30, or 60 minutes")
}

func currentSettings(ctx context.Context, a *app.App) (SettingsJSON, error) {
	theme, err := a.Store.ThemePreference(ctx)
	if err != nil {
		return SettingsJSON{}, err
	}
	minutes, err := a.Store.FetchIntervalMinutes(ctx)
	if err != nil {
		return SettingsJSON{}, err
	}
	return SettingsJSON{Theme: string(theme), FetchIntervalMinutes: minutes}, nil
}

func promptTheme(current store.Theme) (string, error) {
	return prompt.Default.Select(prompt.SelectConfig{
		Title:       "Widget theme",
		Description: "System follows the desktop; widgets are dark unless this is light.",
		Default:     string(current),
		Options: []prompt.SelectOption{
			{Label: "System", Value: string(store.ThemeSystem)},
			{Label: "Light", Value: string(store.ThemeLight)},
			{Label: "Dark", Value: string(store.ThemeDark)},
		},
	})
}

func promptInterval(current background.Interval) (string, error) {
	options := make([]prompt.SelectOption, len(background.Intervals))
	for i, v := range background.Intervals {
		options[i] = prompt.SelectOption{Label: v.Label(), Value: strconv.Itoa(int(v))}
	}
	return prompt.Default.Select(prompt.SelectConfig{
		Title:   "Background refresh",
		Default: strconv.Itoa(int(current)),
		Options: options,
	})
}
