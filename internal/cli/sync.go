package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/models"
	"github.com/example/shopsync/internal/ports/primary"
	"github.com/example/shopsync/internal/wire"
)

// SyncCmd returns the sync command with its per-kind subcommands
func SyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run a reconciliation pass",
	}
	cmd.AddCommand(syncKindCmd(models.KindProduct, "products", "Sync supplier products to the storefront"))
	cmd.AddCommand(syncKindCmd(models.KindOrder, "orders", "Sync storefront orders to the supplier"))
	return cmd
}

func syncKindCmd(kind models.ItemKind, use, short string) *cobra.Command {
	var (
		workers int
		serial  bool
		full    bool
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := wire.SyncService(kind)
			if err != nil {
				return err
			}

			summary, err := svc.Sync(cmd.Context(), primary.SyncOptions{
				Workers: workers,
				Serial:  serial,
				Full:    full,
			})
			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			printSummary(summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "override the configured worker count")
	cmd.Flags().BoolVar(&serial, "serial", false, "process in-process, without spawning workers")
	cmd.Flags().BoolVar(&full, "full", false, "ignore the last-sync watermark and fetch everything")
	return cmd
}

func printSummary(s *primary.SyncSummary) {
	fmt.Printf("Run %s (%s)\n", s.RunID, s.Kind)
	fmt.Printf("  total:     %d\n", s.Total)
	color.Green("  succeeded: %d", s.Succeeded)
	if s.Failed > 0 {
		color.Red("  failed:    %d (see 'shopsync retry')", s.Failed)
	} else {
		fmt.Printf("  failed:    0\n")
	}
	fmt.Printf("  elapsed:   %s\n", s.Elapsed.Round(time.Millisecond))
}
