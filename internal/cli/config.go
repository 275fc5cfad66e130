package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/config"
)

// ConfigPathsJSON is the machine-readable form of `config path`.
type ConfigPathsJSON struct {
	ConfigDir  string `json:"config_dir" yaml:"config_dir"`
	ConfigFile string `json:"config_file" yaml:"config_file"`
	DataDir    string `json:"data_dir" yaml:"data_dir"`
	Store      string `json:"store" yaml:"store"`
	Widget     string `json:"widget" yaml:"widget"`
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		cfg.OAuth.ClientSecret = ""
		if isMachine() {
			return outputData(cfg)
		}
		return toml.NewEncoder(outWriter).Encode(cfg)
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print where copilotstatus keeps its files",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := ConfigPathsJSON{
			ConfigDir:  config.ConfigDir(),
			ConfigFile: config.ConfigFile(),
			DataDir:    config.DataDir(),
			Store:      config.StoreFile(),
			Widget:     config.WidgetFile(),
		}
		if isMachine() {
			return outputData(paths)
		}
		if quiet {
			outln(paths.ConfigFile)
			return nil
		}
		out("Config dir:   %s\n", paths.ConfigDir)
		out("Config file:  %s\n", paths.ConfigFile)
		out("Data dir:     %s\n", paths.DataDir)
		out("Store:        %s\n", paths.Store)
		out("Widget:       %s\n", paths.Widget)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}
