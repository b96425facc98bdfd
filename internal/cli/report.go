package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/wire"
)

// ReportCmd returns the report command
func ReportCmd() *cobra.Command {
	var (
		runID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the sync-run audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID != "" {
				return printRunDetails(cmd, runID)
			}
			return printRuns(cmd, limit)
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "show the per-item details of one run")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}

func printRuns(cmd *cobra.Command, limit int) error {
	runs, err := wire.ReportService().Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No sync runs recorded yet.")
		return nil
	}

	for _, r := range runs {
		status := r.Status
		switch status {
		case "completed":
			status = color.GreenString(status)
		case "partial", "failed":
			status = color.RedString(status)
		}
		fmt.Printf("%s  %-8s %-9s total=%-5d ok=%-5d failed=%-5d %s\n",
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Kind, status, r.Total, r.Succeeded, r.Failed, r.ID)
	}
	return nil
}

func printRunDetails(cmd *cobra.Command, runID string) error {
	details, err := wire.ReportService().RunDetails(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Printf("No details recorded for run %s.\n", runID)
		return nil
	}

	for _, d := range details {
		line := fmt.Sprintf("%-10s %-15s %s", d.Outcome, d.ItemID, d.SKU)
		if d.Message != "" {
			line += "  " + d.Message
		}
		if d.Outcome == "failed" {
			color.Red(line)
		} else {
			fmt.Println(line)
		}
	}
	return nil
}
