package models

import "time"

// Record is one vault entry as the server sees it: an owner and an opaque
// ciphertext. OwnerID never changes after creation.
type Record struct {
	ID         string
	OwnerID    string
	Ciphertext string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
