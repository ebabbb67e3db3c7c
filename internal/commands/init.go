package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/accounts"
	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/gitops"
	"github.com/cleared-dev/ledger/internal/storage/filestore"
)

func newInitCommand() *cobra.Command {
	var name, currency, driver, databaseURL string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new ledger data directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			cfg := config.Default(name)
			cfg.Business.Currency = currency
			cfg.Storage.Driver = driver
			cfg.Storage.DatabaseURL = databaseURL
			if err := runInit(cmd.OutOrStdout(), absDir, cfg); err != nil {
				return err
			}
			if !useGit {
				return nil
			}
			repo, err := gitops.Init(absDir, snapshotAuthor(cfg))
			if err != nil {
				return err
			}
			hash, err := repo.Commit("init: " + cfg.Business.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&currency, "currency", "EUR", "default currency for new clients and vendors")
	cmd.Flags().StringVar(&driver, "driver", "file", "storage driver: file, memory or postgres")
	cmd.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string (postgres driver)")
	cmd.Flags().BoolVar(&useGit, "git", false, "version the data directory with git")

	return cmd
}

func runInit(out io.Writer, dir string, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	dirs := []string{
		"accounts",
		"logs",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	svc := accounts.NewService(accounts.DefaultChart())
	if err := svc.Save(dir); err != nil {
		return fmt.Errorf("writing chart of accounts: %w", err)
	}

	gitignore := ".env\n" + filestore.LockFile + "\nexports/\nimport/processed/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	fmt.Fprintf(out, "Initialized ledger for %s at %s (storage: %s)\n", cfg.Business.Name, dir, cfg.Storage.Driver)
	return nil
}
