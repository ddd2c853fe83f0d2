package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/passvault/internal/client/api"
	"github.com/dmitrijs2005/passvault/internal/client/config"
	"github.com/dmitrijs2005/passvault/internal/client/session"
	"github.com/dmitrijs2005/passvault/internal/client/vault"
	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
)

// keyCheckValue is sealed into the session at login so a later unlock can
// tell a wrong master password from a corrupted record.
const keyCheckValue = "passvault"

var (
	errNotLoggedIn      = errors.New("not logged in; run 'passvault login' first")
	errSessionExpired   = errors.New("session expired; run 'passvault login' again")
	errSessionRejected  = errors.New("server rejected the session; run 'passvault login' again")
	errWrongPassword    = errors.New("wrong master password")
	errPasswordMismatch = errors.New("passwords do not match")
)

// App carries what every command needs: resolved configuration, the
// terminal streams and the key derivation parameters.
type App struct {
	cfg *config.Config
	in  *bufio.Reader
	out io.Writer
	now func() time.Time
	kdf cryptox.KDFParams

	// flag values, applied over the loaded config
	configPath  string
	serverURL   string
	sessionPath string
}

func NewApp(in io.Reader, out io.Writer) *App {
	return &App{
		in:  bufio.NewReader(in),
		out: out,
		now: time.Now,
		kdf: cryptox.DefaultKDF,
	}
}

func (a *App) loadConfig() error {
	cfg, err := config.Load(a.configPath, os.LookupEnv)
	if err != nil {
		return err
	}
	if a.serverURL != "" {
		cfg.ServerURL = a.serverURL
	}
	if a.sessionPath != "" {
		cfg.SessionPath = a.sessionPath
	}
	a.cfg = cfg
	return nil
}

func (a *App) client(serverURL, token string) *api.Client {
	c := api.New(serverURL, a.cfg.RequestTimeout)
	c.SetToken(token)
	return c
}

// loggedIn loads a usable session and returns an authenticated client for
// the server it was created against.
func (a *App) loggedIn(ctx context.Context) (*session.Session, *api.Client, error) {
	store, err := session.Open(ctx, a.cfg.SessionPath)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	sess, err := store.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, nil, errNotLoggedIn
	}
	if err != nil {
		return nil, nil, err
	}
	if sess.Expired(a.now()) {
		return nil, nil, errSessionExpired
	}
	return sess, a.client(sess.ServerURL, sess.Token), nil
}

// unlock asks for the master password and returns a Keeper holding the
// vault key. The caller must Close it.
func (a *App) unlock(sess *session.Session, remote vault.Remote) (*vault.Keeper, error) {
	pw, err := GetPassword(a.in, "Master password", a.out)
	if err != nil {
		return nil, err
	}
	_, key := a.kdf.DeriveKeys(pw, sess.KDFSalt)
	common.WipeByteArray(pw)
	defer common.WipeByteArray(key)

	var check string
	if err := cryptox.Open(sess.KeyCheck, key, []byte(sess.UserID), &check); err != nil || check != keyCheckValue {
		return nil, errWrongPassword
	}
	return vault.NewKeeper(remote, key, sess.UserID), nil
}

// newPassword prompts twice and returns the password if both entries match.
func (a *App) newPassword() ([]byte, error) {
	pw, err := GetPassword(a.in, "Master password", a.out)
	if err != nil {
		return nil, err
	}
	again, err := GetPassword(a.in, "Repeat master password", a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// ask returns v, or prompts for it when empty.
func (a *App) ask(v, prompt string) (string, error) {
	if v != "" {
		return v, nil
	}
	return GetSimpleText(a.in, prompt, a.out)
}

// explain turns transport and server errors into messages that tell the
// user what to do next.
func (a *App) explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, api.ErrUnavailable):
		return fmt.Errorf("cannot reach the server: %w", err)
	case errors.Is(err, common.ErrorUnauthorized):
		return errSessionRejected
	case errors.Is(err, common.ErrCorruptData):
		return fmt.Errorf("%w; the record may have been tampered with", err)
	}
	return err
}
