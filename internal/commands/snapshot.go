package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledger/internal/config"
	"github.com/cleared-dev/ledger/internal/gitops"
)

// snapshotFile is where the journal is written for versioning, relative to
// the data directory. exports/ is ignored by git, so it lives elsewhere.
var snapshotFile = filepath.Join("snapshots", "journal.csv")

func snapshotAuthor(cfg *config.Config) gitops.Author {
	name := cfg.Business.Name
	if name == "" {
		name = "ledger"
	}
	return gitops.Author{Name: name, Email: "ledger@localhost"}
}

func newSnapshotCommand(e *env) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export the journal into the data directory and commit it with git",
		Long: `Write every journal line to snapshots/journal.csv and commit the data
directory, including config, chart of accounts and activity log. The data
directory must have been initialized with "ledger init --git".`,
		Args: cobra.NoArgs,
		RunE: e.run(func(cmd *cobra.Command, _ []string, a *App) error {
			if a.ephemeral {
				return errors.New("snapshot needs a persistent storage driver; the memory driver holds nothing to export")
			}
			repo, err := gitops.Open(a.Config.DataDir, snapshotAuthor(a.Config))
			if err != nil {
				return err
			}

			path := filepath.Join(a.Config.DataDir, snapshotFile)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("creating snapshot dir: %w", err)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			n, err := a.Journal.Export(cmd.Context(), f, "")
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			if message == "" {
				message = fmt.Sprintf("snapshot: %d journal lines as of %s", n, formatDate(timeNow()))
			}
			a.record("snapshot", message, snapshotFile, "")

			hash, err := repo.Commit(message)
			if errors.Is(err, gitops.ErrNothingToCommit) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %s (%d journal lines)\n", hash, n)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
