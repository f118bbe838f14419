package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Inspect and repair the record store",
	}
	cmd.AddCommand(newStoreVerifyCmd(), newStoreRestoreCmd())
	return cmd
}

func newStoreVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that the stored document decodes and is consistent",
		Long: `Decode the live document without modifying it and list every repair
the service would apply when loading it. Exits non-zero when the document
cannot be decoded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.close()
			if b.file == nil {
				return errFileBackendOnly
			}

			issues, err := b.file.Verify(cmd.Context())
			if err != nil {
				return fmt.Errorf("%s: %w", b.file.Path(), err)
			}
			out := cmd.OutOrStdout()
			if len(issues) == 0 {
				fmt.Fprintf(out, "%s: ok\n", b.file.Path())
				return nil
			}
			fmt.Fprintf(out, "%s: %d repair(s) needed on load\n", b.file.Path(), len(issues))
			for _, issue := range issues {
				fmt.Fprintf(out, "  - %s\n", issue)
			}
			return nil
		},
	}
}

func newStoreRestoreCmd() *cobra.Command {
	var from int
	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Promote a recovery copy to the live document",
		Long: `Replace the live document with recovery copy N (1 is the most recent).

The current live document is itself kept as recovery copy 1, so a restore
can be undone by restoring again. Stop the server first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from < 1 {
				return errors.New("--from must be at least 1")
			}
			b, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer b.close()
			if b.file == nil {
				return errFileBackendOnly
			}

			if err := b.file.Restore(cmd.Context(), from); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", b.file.Path(), b.file.BackupPath(from))
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 1, "recovery copy to restore (1 = newest)")
	return cmd
}
