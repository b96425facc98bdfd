package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/config"
	"github.com/example/shopsync/internal/db"
)

// DoctorCmd returns the doctor command
func DoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment and configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			failures := 0
			check := func(name string, err error) {
				if err != nil {
					color.Red("✗ %s: %v", name, err)
					failures++
					return
				}
				color.Green("✓ %s", name)
			}

			cfg, err := config.Load(cwd)
			check("configuration ("+config.FileName+")", err)
			if err != nil {
				fmt.Println()
				fmt.Println("Run 'shopsync init' to create a default configuration.")
				return fmt.Errorf("doctor found %d problem(s)", failures)
			}

			check("data directories", cfg.EnsureDirs())

			_, dbErr := db.Open(cfg.DBPath)
			check("ledger database", dbErr)

			check("supplier endpoint", requireSet(cfg.Supplier.Endpoint, "set supplier.endpoint in shopsync.yaml"))
			check("supplier api key", requireSet(cfg.Supplier.APIKey, "set SHOPSYNC_SUPPLIER_KEY"))
			check("storefront endpoint", requireSet(cfg.Storefront.Endpoint, "set storefront.endpoint in shopsync.yaml"))
			check("storefront api key", requireSet(cfg.Storefront.APIKey, "set SHOPSYNC_STOREFRONT_KEY"))

			fmt.Println()
			if failures > 0 {
				return fmt.Errorf("doctor found %d problem(s)", failures)
			}
			color.Green("All checks passed.")
			return nil
		},
	}
}

func requireSet(value, hint string) error {
	if value == "" {
		return fmt.Errorf("not configured (%s)", hint)
	}
	return nil
}
