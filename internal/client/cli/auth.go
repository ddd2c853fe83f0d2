package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passvault/internal/client/session"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
)

func newRegisterCmd(a *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.register(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newLoginCmd(a *App) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session on this machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.login(cmd.Context(), email)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newLogoutCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.logout(cmd.Context())
		},
	}
}

// register creates the account. It does not log in.
func (a *App) register(ctx context.Context, email string) error {
	email, err := a.ask(email, "Email")
	if err != nil {
		return err
	}
	pw, err := a.newPassword()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	// Only the login half of the derived key leaves this machine.
	salt := cryptox.NewSalt()
	secret, key := a.kdf.DeriveKeys(pw, salt)
	common.WipeByteArray(key)

	u, err := a.client(a.cfg.ServerURL, "").Register(ctx, email, secret, salt)
	if errors.Is(err, common.ErrorAlreadyExists) {
		return fmt.Errorf("an account for %s already exists", email)
	}
	if err != nil {
		return a.explain(err)
	}

	fmt.Fprintf(a.out, "Registered %s. Run 'passvault login' to open your vault.\n", u.Email)
	return nil
}

// login derives both halves of the master key from the account salt,
// authenticates with the login half and seals the key check with the vault
// half. The session keeps neither.
func (a *App) login(ctx context.Context, email string) error {
	email, err := a.ask(email, "Email")
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.in, "Master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	c := a.client(a.cfg.ServerURL, "")
	salt, err := c.Salt(ctx, email)
	if err != nil {
		return a.explain(err)
	}
	secret, key := a.kdf.DeriveKeys(pw, salt)
	defer common.WipeByteArray(key)

	res, err := c.Login(ctx, email, secret)
	if errors.Is(err, common.ErrorUnauthorized) {
		return errors.New("invalid email or password")
	}
	if err != nil {
		return a.explain(err)
	}
	if !bytes.Equal(salt, res.User.KDFSalt) {
		return errors.New("server changed the account salt during login; try again")
	}
	check, err := cryptox.Seal(keyCheckValue, key, []byte(res.User.ID))
	if err != nil {
		return err
	}

	store, err := session.Open(ctx, a.cfg.SessionPath)
	if err != nil {
		return err
	}
	defer store.Close()

	err = store.Save(ctx, &session.Session{
		ServerURL: a.cfg.ServerURL,
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		UserID:    res.User.ID,
		Email:     res.User.Email,
		KDFSalt:   res.User.KDFSalt,
		KeyCheck:  check,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Logged in as %s until %s.\n", res.User.Email, res.ExpiresAt.Local().Format(time.DateTime))
	return nil
}

// logout only discards the local session; the token stays valid on the
// server until it expires.
func (a *App) logout(ctx context.Context) error {
	store, err := session.Open(ctx, a.cfg.SessionPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
