// Package models defines the plaintext types that exist only inside the CLI
// process and inside sealed blobs.
package models

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// Credential is the plaintext content of one vault record.
type Credential struct {
	Title    string `json:"title"`
	Username string `json:"username"`
	Password string `json:"password"`
	URL      string `json:"url"`
	Notes    string `json:"notes"`
}

// Validate requires a title; everything else is optional.
func (c Credential) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return common.NewValidationError("title", "is required")
	}
	return nil
}

// Wipe blanks the secret fields. Go strings are immutable so this only drops
// references; it does not scrub memory.
func (c *Credential) Wipe() {
	c.Password = ""
	c.Notes = ""
}

// Item is a decrypted vault record.
type Item struct {
	ID         string
	Credential Credential
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
