package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/shopsync/internal/config"
	"github.com/example/shopsync/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize shopsync in the current directory",
		Long: `Write a default shopsync.yaml, create the data directories, and
initialize the ledger database. API keys are read from the
SHOPSYNC_SUPPLIER_KEY and SHOPSYNC_STOREFRONT_KEY environment variables
at run time and do not need to be stored in the file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}

			cfgPath := filepath.Join(cwd, config.FileName)
			if _, err := os.Stat(cfgPath); err == nil {
				return fmt.Errorf("%s already exists, refusing to overwrite", config.FileName)
			}

			cfg := config.Default(cwd)
			if err := config.Save(cwd, cfg); err != nil {
				return err
			}
			color.Green("✓ Wrote %s", config.FileName)

			if err := cfg.EnsureDirs(); err != nil {
				return err
			}
			color.Green("✓ Created data directories under %s", cfg.DataDir)

			if _, err := db.Open(cfg.DBPath); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			color.Green("✓ Initialized ledger database at %s", cfg.DBPath)

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  edit shopsync.yaml with your supplier and storefront endpoints")
			fmt.Println("  shopsync sync products")
			return nil
		},
	}
}
