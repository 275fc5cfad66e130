package cli

import (
	"errors"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuadavidthomas/copilotstatus/internal/display"
	"github.com/joshuadavidthomas/copilotstatus/internal/models"
	"github.com/joshuadavidthomas/copilotstatus/internal/store"
)

// HistoryPointJSON is one row of `history` output.
type HistoryPointJSON struct {
	FetchedAt        time.Time `json:"fetched_at" yaml:"fetched_at"`
	Total            float64   `json:"total" yaml:"total"`
	Used             float64   `json:"used" yaml:"used"`
	RemainingPercent float64   `json:"remaining_percent" yaml:"remaining_percent"`
}

// HistoryJSON is the machine-readable form of `history`.
type HistoryJSON struct {
	Category models.Category    `json:"category" yaml:"category"`
	Days     int                `json:"days" yaml:"days"`
	Points   []HistoryPointJSON `json:"points" yaml:"points"`
}

var historyCategories = map[string]models.Category{
	"premium":     models.CategoryPremium,
	"chat":        models.CategoryChat,
	"completions": models.CategoryCompletions,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded premium-request usage over time",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		days, _ := cmd.Flags().GetInt("days")
		asTable, _ := cmd.Flags().GetBool("table")
		name, _ := cmd.Flags().GetString("category")

		if days <= 0 {
			return errors.New("--days must be positive")
		}
		category, ok := historyCategories[name]
		if !ok {
			return errors.New("--category must be premium, chat, or completions")
		}

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(ctx, a)

		since := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
		points, err := a.Store.History(ctx, category, since)
		if err != nil {
			return err
		}

		if isMachine() {
			res := HistoryJSON{Category: category, Days: days, Points: make([]HistoryPointJSON, 0, len(points))}
			for _, p := range points {
				res.Points = append(res.Points, HistoryPointJSON{
					FetchedAt:        p.FetchedAt,
					Total:            p.Total,
					Used:             p.Used,
					RemainingPercent: p.RemainingPercent,
				})
			}
			return outputData(res)
		}

		if asTable {
			outln(display.NewTable(
				[]string{"Fetched", "Used", "Total", "Remaining"},
				historyRows(points),
				display.TableOptions{Title: category.Label(), NoColor: noColor},
			))
			return nil
		}

		width := display.TerminalWidth() - 12
		if width < 20 {
			width = 20
		}
		outln(display.RenderHistoryChart(points, width, 10))
		return nil
	},
}

func historyRows(points []store.HistoryPoint) [][]string {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{
			p.FetchedAt.Local().Format("Jan 2 15:04"),
			display.FormatCount(p.Used),
			display.FormatCount(p.Total),
			strconv.FormatFloat(p.RemainingPercent, 'f', 0, 64) + "%",
		})
	}
	return rows
}

func init() {
	historyCmd.Flags().Int("days", 30, "How many days back to show")
	historyCmd.Flags().Bool("table", false, "Show a table instead of a chart")
	historyCmd.Flags().String("category", "premium", "Quota category: premium, chat, or completions")
}
