// Package session persists the CLI's login session in a local SQLite file.
// The vault key is never stored; it is re-derived from the password on
// every vault command.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/passvault/internal/client/migrations"
	"github.com/dmitrijs2005/passvault/internal/dbx"
	"github.com/dmitrijs2005/passvault/internal/filex"
)

var ErrNoSession = errors.New("not logged in")

const (
	keyServerURL = "server_url"
	keyToken     = "token"
	keyExpiresAt = "expires_at"
	keyUserID    = "user_id"
	keyEmail     = "email"
	keyKDFSalt   = "kdf_salt"
	keyKeyCheck  = "key_check"
)

// Session is what the CLI remembers between invocations.
type Session struct {
	ServerURL string
	Token     string
	ExpiresAt time.Time
	UserID    string
	Email     string
	KDFSalt   []byte
	// KeyCheck is a small blob sealed with the vault key at login. Opening
	// it proves a later password derives the same key.
	KeyCheck  string
}

// Expired reports whether the token has passed its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store keeps the session as key/value rows in the metadata table.
type Store struct {
	db *sql.DB
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

var chmod = os.Chmod

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, ".")
}

// Open opens (creating if needed) the session database at path. The file
// and its directory are private to the current user.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one connection keeps ":memory:" databases coherent
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	// the token must not sit in a world-readable file
	if path != ":memory:" {
		if err := chmod(path, 0o600); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to restrict session file: %w", err)
		}
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func get(ctx context.Context, db dbx.DBTX, key string) ([]byte, error) {
	var value []byte
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func set(ctx context.Context, db dbx.DBTX, key string, value []byte) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

// Save replaces the stored session atomically.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	values := map[string][]byte{
		keyServerURL: []byte(sess.ServerURL),
		keyToken:     []byte(sess.Token),
		keyExpiresAt: []byte(sess.ExpiresAt.UTC().Format(time.RFC3339)),
		keyUserID:    []byte(sess.UserID),
		keyEmail:     []byte(sess.Email),
		keyKDFSalt:   sess.KDFSalt,
		keyKeyCheck:  []byte(sess.KeyCheck),
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
			return fmt.Errorf("failed to clear metadata: %w", err)
		}
		for k, v := range values {
			if err := set(ctx, tx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// Load returns the stored session, or ErrNoSession.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	token, err := get(ctx, s.db, keyToken)
	if err != nil {
		return nil, err
	}
	if len(token) == 0 {
		return nil, ErrNoSession
	}

	sess := &Session{Token: string(token)}
	fields := []struct {
		key string
		dst *string
	}{
		{keyServerURL, &sess.ServerURL},
		{keyUserID, &sess.UserID},
		{keyEmail, &sess.Email},
		{keyKeyCheck, &sess.KeyCheck},
	}
	for _, f := range fields {
		v, err := get(ctx, s.db, f.key)
		if err != nil {
			return nil, err
		}
		*f.dst = string(v)
	}

	if sess.KDFSalt, err = get(ctx, s.db, keyKDFSalt); err != nil {
		return nil, err
	}

	exp, err := get(ctx, s.db, keyExpiresAt)
	if err != nil {
		return nil, err
	}
	if len(exp) > 0 {
		if sess.ExpiresAt, err = time.Parse(time.RFC3339, string(exp)); err != nil {
			return nil, fmt.Errorf("stored expiry: %w", err)
		}
	}
	return sess, nil
}

// Clear forgets the session. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM metadata`); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
