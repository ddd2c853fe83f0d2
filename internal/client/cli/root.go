package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passvault/internal/buildinfo"
)

// NewRootCommand builds the passvault command tree around a.
func NewRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:     "passvault",
		Short:   "Personal secrets vault",
		Version: buildinfo.Version(),
		Long: `passvault keeps credentials in a remote vault. Every record is encrypted
on this machine with a key derived from your master password; the server
only ever stores ciphertext.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a JSON config file")
	root.PersistentFlags().StringVar(&a.serverURL, "server", "", "server base URL (overrides config)")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", "", "session database path (overrides config)")

	root.SetOut(a.out)
	root.SetErr(a.out)

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newBackupCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command tree with args against the given streams.
func Execute(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	root := NewRootCommand(NewApp(in, out))
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newVersionCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			buildinfo.PrintBuildData(a.out)
		},
	}
}
