package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/cli"
	"github.com/example/shopsync/internal/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "shopsync",
		Short:   "shopsync - supplier/storefront reconciliation engine",
		Version: version.String(),
		Long: `shopsync reconciles products and orders between a supplier system and a
customer-facing storefront. Products flow from the supplier to the
storefront; orders flow the other way. Failed items are dead-lettered on
disk and can be replayed with 'shopsync retry'.`,
	}

	// Add subcommands
	rootCmd.AddCommand(cli.InitCmd())
	rootCmd.AddCommand(cli.SyncCmd())
	rootCmd.AddCommand(cli.WorkerCmd())
	rootCmd.AddCommand(cli.RetryCmd())
	rootCmd.AddCommand(cli.ReportCmd())
	rootCmd.AddCommand(cli.DoctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
