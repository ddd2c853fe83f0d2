// Package cryptox implements the cryptographic primitives of passvault:
// bcrypt login hashes, Argon2id vault-key derivation, and the AES-GCM
// envelope that turns a credential into one opaque, self-contained blob.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/dmitrijs2005/passvault/internal/common"
)

const (
	// envelopeVersion is the first byte of every sealed blob.
	envelopeVersion byte = 1

	nonceSize = 12

	// KeySize is the vault key length (AES-256).
	KeySize = 32

	// SaltSize is the length of the per-user KDF salt.
	SaltSize = 16
)

// KDFParams are Argon2id cost parameters.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDF is used for every real vault key.
var DefaultKDF = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// HKDF labels that split the Argon2id master key in two.
var (
	loginInfo = []byte("passvault login v1")
	vaultInfo = []byte("passvault vault v1")
)

// Derive returns the Argon2id master key for password and salt.
func (p KDFParams) Derive(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, KeySize)
}

// DeriveKeys stretches password once and splits the master key with HKDF
// into a login secret, which is all the server ever receives, and a vault
// key that never leaves the client. Neither can be computed from the other.
func (p KDFParams) DeriveKeys(password, salt []byte) (loginSecret string, vaultKey []byte) {
	master := p.Derive(password, salt)
	defer common.WipeByteArray(master)

	login := expand(master, loginInfo)
	defer common.WipeByteArray(login)

	return hex.EncodeToString(login), expand(master, vaultInfo)
}

func expand(master, info []byte) []byte {
	out := make([]byte, KeySize)
	// HKDF-SHA256 yields up to 255*32 bytes; a short read cannot happen.
	if _, err := io.ReadFull(hkdf.Expand(sha256.New, master, info), out); err != nil {
		panic("cryptox: hkdf: " + err.Error())
	}
	return out
}

// NewSalt returns a fresh random KDF salt.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// Seal serializes v to JSON and encrypts it under key with AES-GCM.
// aad is authenticated but not encrypted; the vault binds blobs to the owner
// id this way. The result is base64(version || nonce || ciphertext || tag).
func Seal(v any, key, aad []byte) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	defer common.WipeByteArray(plaintext)

	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	out := make([]byte, 0, 1+nonceSize+len(plaintext)+aead.Overhead())
	out = append(out, envelopeVersion)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, aad)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Open reverses Seal into v. Every failure to decode, authenticate or
// deserialize is reported as common.ErrCorruptData and leaves v untouched.
// A wrong key or aad is indistinguishable from tampering.
func Open(blob string, key, aad []byte, v any) error {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("%w: bad encoding", common.ErrCorruptData)
	}
	if len(raw) < 1+nonceSize || raw[0] != envelopeVersion {
		return fmt.Errorf("%w: bad header", common.ErrCorruptData)
	}

	aead, err := newAEAD(key)
	if err != nil {
		return err
	}
	if len(raw) < 1+nonceSize+aead.Overhead() {
		return fmt.Errorf("%w: truncated", common.ErrCorruptData)
	}

	nonce := raw[1 : 1+nonceSize]
	plaintext, err := aead.Open(nil, nonce, raw[1+nonceSize:], aad)
	if err != nil {
		return fmt.Errorf("%w: authentication failed", common.ErrCorruptData)
	}
	defer common.WipeByteArray(plaintext)

	// decode into a scratch value so a type mismatch cannot half-fill v
	dst := reflect.ValueOf(v)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return errors.New("open target must be a non-nil pointer")
	}
	tmp := reflect.New(dst.Elem().Type())
	if err := json.Unmarshal(plaintext, tmp.Interface()); err != nil {
		return fmt.Errorf("%w: undecodable payload", common.ErrCorruptData)
	}
	dst.Elem().Set(tmp.Elem())
	return nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("vault key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
