package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/porkyfarm/porcpro/internal/domain/models"
	"github.com/porkyfarm/porcpro/internal/repository/sheets"
	"github.com/porkyfarm/porcpro/internal/service/dashboard"
	"github.com/porkyfarm/porcpro/internal/service/export"
)

const timeLayout = "2006-01-02 15:04"

var activityLimit int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the dashboard figures of a farm",
	Example: `  porkyctl stats
  porkyctl stats --user 8f1c --output json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sum, err := summary(cmd)
		if err != nil {
			return err
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), sum)
		}
		printStats(cmd.OutOrStdout(), sum)
		return nil
	},
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Print the prioritised alerts of a farm",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sum, err := summary(cmd)
		if err != nil {
			return err
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), sum.Alerts)
		}
		printAlerts(cmd.OutOrStdout(), sum.Alerts)
		return nil
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Print the most recent entries of the activity log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		h, err := manager.Open(cmd.Context(), userID)
		if err != nil {
			return err
		}
		acts := h.Activities()
		if activityLimit > 0 && len(acts) > activityLimit {
			acts = acts[:activityLimit]
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), acts)
		}
		printActivities(cmd.OutOrStdout(), acts)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Replace the farm feeding ledger in Google Sheets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.Sheets.Enabled() {
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be set")
		}
		sheetsRepo, err := sheets.NewGoogleSheetRepository(cmd.Context(), cfg.Sheets, log.Named("repo.sheets"))
		if err != nil {
			return err
		}
		h, err := manager.Open(cmd.Context(), userID)
		if err != nil {
			return err
		}
		res, err := export.NewService(sheetsRepo, cfg.Sheets.FeedingRange, log.Named("svc.export")).ExportFeeding(cmd.Context(), h)
		if err != nil {
			return err
		}
		if output == "json" {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d feeding records to %s\n", res.Rows, res.Range)
		return nil
	},
}

func init() {
	activityCmd.Flags().IntVar(&activityLimit, "limit", 20, "number of entries to print (0 for all)")
	rootCmd.AddCommand(statsCmd, alertsCmd, activityCmd, exportCmd)
}

func summary(cmd *cobra.Command) (dashboard.Summary, error) {
	h, err := manager.Open(cmd.Context(), userID)
	if err != nil {
		return dashboard.Summary{}, err
	}
	return dashboard.NewService(log.Named("svc.dashboard"), cfg.Alerts.MaxAlerts).Summary(h, manager.Now()), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printStats(out io.Writer, s dashboard.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Day:\t%s\n", s.Day.Format("2006-01-02"))
	fmt.Fprintf(w, "Revision:\t%d\n", s.Revision)
	fmt.Fprintf(w, "Animals:\t%d (%d in active herd)\n", s.Stats.TotalAnimals, s.Stats.ActiveHerd)

	statuses := make([]string, 0, len(s.Stats.ByStatus))
	for st := range s.Stats.ByStatus {
		statuses = append(statuses, string(st))
	}
	sort.Strings(statuses)
	for _, st := range statuses {
		fmt.Fprintf(w, "  %s:\t%d\n", st, s.Stats.ByStatus[models.AnimalStatus(st)])
	}

	fmt.Fprintf(w, "Open health cases:\t%d\n", s.Stats.OpenHealthCases)
	fmt.Fprintf(w, "Active gestations:\t%d\n", s.Stats.ActiveGestations)
	fmt.Fprintf(w, "Pending vaccinations:\t%d\n", s.Stats.PendingVaccinations)
	fmt.Fprintf(w, "Feed in stock:\t%.2f (value %.0f, %d low)\n", s.Feed.StockQuantity, s.Feed.StockValue, s.Feed.LowStockCount)
	fmt.Fprintf(w, "Feed last 7 days:\t%.2f kg for %.0f\n", s.Feed.WeekFeedingQuantity, s.Feed.WeekFeedingCost)
	_ = w.Flush()

	if len(s.UpcomingBirths) == 0 {
		return
	}
	fmt.Fprintln(out, "\nUpcoming births:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOW\tDUE\tDAYS")
	for _, b := range s.UpcomingBirths {
		days := fmt.Sprintf("%d", b.DaysUntilDue)
		if b.Overdue {
			days = "overdue"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", b.SowName, b.DueDate.Format("2006-01-02"), days)
	}
	_ = w.Flush()
}

func printAlerts(out io.Writer, alerts []dashboard.Alert) {
	if len(alerts) == 0 {
		fmt.Fprintln(out, "No alerts.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tKIND\tTITLE\tMESSAGE")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Priority, a.Kind, a.Title, a.Message)
	}
	_ = w.Flush()
}

func printActivities(out io.Writer, acts []models.Activity) {
	if len(acts) == 0 {
		fmt.Fprintln(out, "No activity recorded.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tTYPE\tTITLE\tDESCRIPTION")
	for _, a := range acts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.Timestamp.Format(timeLayout), a.Type, a.Title, a.Description)
	}
	_ = w.Flush()
}
