package cli

import (
	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/widget"
)

// WidgetJSON is the machine-readable form of `widget render`.
type WidgetJSON struct {
	widget.Document `yaml:",inline"`
	File            string `json:"file,omitempty" yaml:"file,omitempty"`
}

var widgetCmd = &cobra.Command{
	Use:   "widget",
	Short: "Render, serve, or clear the status-bar widget",
}

var widgetRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the widget from the last fetched quota",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		a.Syncer.SyncFromMirror(ctx)
		doc := widget.NewDocument(a.Syncer.CurrentView(ctx))

		if isMachine() {
			return outputData(WidgetJSON{Document: doc, File: a.Config.Widget.File})
		}
		outln(doc.Text)
		if !quiet && a.Config.Widget.File != "" {
			out("Written to %s\n", a.Config.Widget.File)
		}
		return nil
	},
}

var widgetServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widget over local HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		addr, _ := cmd.Flags().GetString("listen")
		if addr == "" {
			addr = a.Config.Widget.Listen
		}
		if !quiet && !isMachine() {
			out("Serving http://%s/widget.json (Ctrl+C to stop)\n", addr)
		}
		return widget.NewServer(a.Syncer.CurrentView, 5, 10).ListenAndServe(ctx, addr)
	},
}

var widgetClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset every widget to the signed-out state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		if err := a.Syncer.Clear(ctx); err != nil {
			return err
		}
		if isMachine() {
			return outputData(ActionResultJSON{Success: true, Message: "widgets cleared"})
		}
		if !quiet {
			outln("✓ Widgets cleared")
		}
		return nil
	},
}

func init() {
	widgetServeCmd.Flags().String("listen", "", "Address to listen on (default from config)")

	widgetCmd.AddCommand(widgetRenderCmd)
	widgetCmd.AddCommand(widgetServeCmd)
	widgetCmd.AddCommand(widgetClearCmd)
}
