package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/filex"
	"github.com/dmitrijs2005/passvault/internal/netx"
)

func newBackupCmd(a *App) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export the vault (still encrypted) to object storage",
		Long: `backup asks the server to write every record you own, as ciphertext, to
object storage and prints a short-lived download link. With --output the
export is downloaded straight away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.backup(cmd.Context(), output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "download the export to this file")
	return cmd
}

func (a *App) backup(ctx context.Context, output string) error {
	_, c, err := a.loggedIn(ctx)
	if err != nil {
		return err
	}

	key, url, err := c.Backup(ctx)
	if errors.Is(err, common.ErrorUnavailable) {
		return errors.New("the server has no backup storage configured")
	}
	if err != nil {
		return a.explain(err)
	}
	fmt.Fprintf(a.out, "Backup stored as %s.\n", key)

	if output == "" {
		fmt.Fprintf(a.out, "Download link (expires soon):\n%s\n", url)
		return nil
	}

	f, err := filex.CreatePrivate(output)
	if err != nil {
		return err
	}
	n, err := netx.DownloadPresignedURL(ctx, url, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("download backup: %w", err)
	}
	fmt.Fprintf(a.out, "Saved %d bytes to %s.\n", n, output)
	return nil
}
