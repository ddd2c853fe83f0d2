package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/passvault/internal/client/models"
	"github.com/dmitrijs2005/passvault/internal/client/vault"
	"github.com/dmitrijs2005/passvault/internal/common"
)

// credentialFlags are the editable fields shared by add and edit.
type credentialFlags struct {
	title    string
	username string
	url      string
	notes    string

	// longNotes reads notes interactively, several lines at a time
	longNotes bool
}

func (f *credentialFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "record title")
	cmd.Flags().StringVarP(&f.username, "username", "u", "", "login name")
	cmd.Flags().StringVar(&f.url, "url", "", "site address")
	cmd.Flags().StringVarP(&f.notes, "notes", "n", "", "free-form notes")
	cmd.Flags().BoolVar(&f.longNotes, "long-notes", false, "enter multi-line notes interactively")
}

// readNotes returns the notes from the flags, prompting when asked to.
func (a *App) readNotes(f credentialFlags) (string, error) {
	if !f.longNotes {
		return f.notes, nil
	}
	return GetMultiline(a.in, "Notes", a.out)
}

func newListCmd(a *App) *cobra.Command {
	var (
		reveal bool
		search string
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List vault records",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd.Context(), func(ctx context.Context, k *vault.Keeper) error {
				return a.list(ctx, k, reveal, search)
			})
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "include passwords in the output")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only show records whose title contains this text")
	return cmd
}

func newShowCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one record in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd.Context(), func(ctx context.Context, k *vault.Keeper) error {
				return a.show(ctx, k, args[0])
			})
		},
	}
}

func newAddCmd(a *App) *cobra.Command {
	var f credentialFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a record; the password is prompted for",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd.Context(), func(ctx context.Context, k *vault.Keeper) error {
				return a.add(ctx, k, f)
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newEditCmd(a *App) *cobra.Command {
	var (
		f        credentialFlags
		password bool
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withVault(cmd.Context(), func(ctx context.Context, k *vault.Keeper) error {
				return a.edit(ctx, k, cmd, args[0], f, password)
			})
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVarP(&password, "password", "p", false, "prompt for a new password")
	return cmd
}

func newDeleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.remove(cmd.Context(), args[0])
		},
	}
}

// withVault runs fn with an unlocked Keeper and wipes the key afterwards.
func (a *App) withVault(ctx context.Context, fn func(context.Context, *vault.Keeper) error) error {
	sess, c, err := a.loggedIn(ctx)
	if err != nil {
		return err
	}
	k, err := a.unlock(sess, c)
	if err != nil {
		return err
	}
	defer k.Close()

	return a.explain(fn(ctx, k))
}

// list prints the vault. A non-empty search keeps only records whose title
// contains it, ignoring case; titles are only readable after decryption, so
// the filter runs here and not on the server.
func (a *App) list(ctx context.Context, k *vault.Keeper, reveal bool, search string) error {
	items, err := k.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Vault is empty.")
		return nil
	}
	if search != "" {
		items = filterByTitle(items, search)
		if len(items) == 0 {
			fmt.Fprintf(a.out, "No records match %q.\n", search)
			return nil
		}
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	if reveal {
		fmt.Fprintln(w, "ID\tTITLE\tUSERNAME\tPASSWORD\tURL\tUPDATED")
	} else {
		fmt.Fprintln(w, "ID\tTITLE\tUSERNAME\tURL\tUPDATED")
	}
	for _, it := range items {
		c := it.Credential
		updated := it.UpdatedAt.Local().Format(time.DateTime)
		if reveal {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", it.ID, c.Title, c.Username, c.Password, c.URL, updated)
		} else {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", it.ID, c.Title, c.Username, c.URL, updated)
		}
	}
	return w.Flush()
}

func filterByTitle(items []*models.Item, search string) []*models.Item {
	needle := strings.ToLower(search)
	var out []*models.Item
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Credential.Title), needle) {
			out = append(out, it)
		}
	}
	return out
}

func (a *App) show(ctx context.Context, k *vault.Keeper, id string) error {
	it, err := k.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("record %s not found", id)
	}
	if err != nil {
		return err
	}
	defer it.Credential.Wipe()

	c := it.Credential
	w := tabwriter.NewWriter(a.out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", it.ID)
	fmt.Fprintf(w, "Title:\t%s\n", c.Title)
	fmt.Fprintf(w, "Username:\t%s\n", c.Username)
	fmt.Fprintf(w, "Password:\t%s\n", c.Password)
	fmt.Fprintf(w, "URL:\t%s\n", c.URL)
	fmt.Fprintf(w, "Notes:\t%s\n", c.Notes)
	fmt.Fprintf(w, "Created:\t%s\n", it.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Updated:\t%s\n", it.UpdatedAt.Local().Format(time.DateTime))
	return w.Flush()
}

func (a *App) add(ctx context.Context, k *vault.Keeper, f credentialFlags) error {
	title, err := a.ask(f.title, "Title")
	if err != nil {
		return err
	}
	notes, err := a.readNotes(f)
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.in, "Password to store", a.out)
	if err != nil {
		return err
	}

	c := models.Credential{
		Title:    title,
		Username: f.username,
		Password: string(pw),
		URL:      f.url,
		Notes:    notes,
	}
	common.WipeByteArray(pw)
	defer c.Wipe()

	it, err := k.Add(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %s.\n", it.ID)
	return nil
}

// edit overwrites only the fields whose flags were given. The record is
// re-sealed as a whole; the last writer wins.
func (a *App) edit(ctx context.Context, k *vault.Keeper, cmd *cobra.Command, id string, f credentialFlags, password bool) error {
	it, err := k.Get(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("record %s not found", id)
	}
	if err != nil {
		return err
	}

	c := it.Credential
	defer c.Wipe()

	changed := password
	fields := []struct {
		flag  string
		value string
		dst   *string
	}{
		{"title", f.title, &c.Title},
		{"username", f.username, &c.Username},
		{"url", f.url, &c.URL},
		{"notes", f.notes, &c.Notes},
	}
	for _, fl := range fields {
		if cmd.Flags().Changed(fl.flag) {
			*fl.dst = fl.value
			changed = true
		}
	}
	if f.longNotes {
		if c.Notes, err = a.readNotes(f); err != nil {
			return err
		}
		changed = true
	}
	if !changed {
		return errors.New("nothing to change; pass --title, --username, --url, --notes or --password")
	}

	if password {
		pw, err := GetPassword(a.in, "New password to store", a.out)
		if err != nil {
			return err
		}
		c.Password = string(pw)
		common.WipeByteArray(pw)
	}

	updated, err := k.Update(ctx, id, c)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("record %s not found", id)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s.\n", updated.ID)
	return nil
}

// remove needs no master password: the server only checks ownership.
func (a *App) remove(ctx context.Context, id string) error {
	_, c, err := a.loggedIn(ctx)
	if err != nil {
		return err
	}

	err = c.Delete(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("record %s not found", id)
	}
	if err != nil {
		return a.explain(err)
	}
	fmt.Fprintf(a.out, "Deleted %s.\n", id)
	return nil
}
