package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/wire"
)

// RetryCmd returns the retry command
func RetryCmd() *cobra.Command {
	var (
		all      bool
		window   time.Duration
		latest   bool
		dryRun   bool
		noRepair bool
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Replay dead-lettered items",
		Long: `Replay unprocessed dead letters through the per-item sync path.
Validation failures are automatically repaired where possible before
replay. Each record's file is transitioned exactly once: to processed,
failed_retry, or dry_run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcomes, err := wire.RetryService().Retry(cmd.Context(), primary.RetryOptions{
				All:      all,
				Window:   window,
				Latest:   latest,
				DryRun:   dryRun,
				NoRepair: noRepair,
			})
			if err != nil {
				return fmt.Errorf("retry failed: %w", err)
			}

			if len(outcomes) == 0 {
				fmt.Println("No unprocessed dead letters.")
				return nil
			}

			processed, failed := 0, 0
			for _, o := range outcomes {
				printOutcome(o)
				switch o.Result {
				case "processed":
					processed++
				case "failed_retry":
					failed++
				}
			}

			fmt.Println()
			if dryRun {
				fmt.Printf("%d record(s) classified (dry run)\n", len(outcomes))
				return nil
			}
			color.Green("%d processed", processed)
			if failed > 0 {
				color.Red("%d failed again", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "replay every unprocessed record regardless of age")
	cmd.Flags().DurationVar(&window, "window", 0, "replay records captured within this window (default from config)")
	cmd.Flags().BoolVar(&latest, "latest", false, "replay only the most recent record")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "classify records without side effects")
	cmd.Flags().BoolVar(&noRepair, "no-repair", false, "disable automatic repair of validation failures")
	return cmd
}

func printOutcome(o primary.RetryOutcome) {
	marker := ""
	if o.Repaired {
		marker = color.CyanString(" [repaired]")
	}
	switch o.Result {
	case "processed":
		color.Green("✓ %s %s (%s)%s", o.Kind, o.ItemID, o.Reason, marker)
	case "failed_retry":
		color.Red("✗ %s %s (%s)%s: %s", o.Kind, o.ItemID, o.Reason, marker, o.Err)
	default:
		fmt.Printf("- %s %s (%s)%s\n", o.Kind, o.ItemID, o.Reason, marker)
	}
}
