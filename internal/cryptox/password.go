package cryptox

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/passvault/internal/common"
)

// MaxPasswordLen is the longest password bcrypt will accept.
const MaxPasswordLen = 72

// PasswordCost is the bcrypt work factor for login secrets.
var PasswordCost = bcrypt.DefaultCost

// dummyHash is compared against when the account does not exist so that
// unknown-user logins take as long as wrong-password ones. It is built at
// startup; building it on first use would make that login slower.
var dummyHash = newDummyHash()

func newDummyHash() []byte {
	h, err := bcrypt.GenerateFromPassword(common.GenerateRandByteArray(16), PasswordCost)
	if err != nil {
		panic("cryptox: dummy hash: " + err.Error())
	}
	return h
}

// HashPassword returns a salted bcrypt digest of password.
func HashPassword(password []byte) (string, error) {
	if len(password) == 0 {
		return "", common.NewValidationError("password", "is required")
	}
	if len(password) > MaxPasswordLen {
		return "", common.NewValidationError("password", "must be at most 72 bytes")
	}
	digest, err := bcrypt.GenerateFromPassword(password, PasswordCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// CheckPassword reports whether password matches digest. Malformed digests
// simply do not match.
func CheckPassword(password []byte, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), password) == nil
}

// BurnPasswordCheck performs a comparison whose result is discarded.
func BurnPasswordCheck(password []byte) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, password)
}
