// Package models defines server-side data models persisted in the store.
package models

import "time"

// User is an account. PasswordHash is a bcrypt digest; KDFSalt is handed to
// the client at login so it can derive the vault key.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	KDFSalt      []byte
	CreatedAt    time.Time
}
