// Package services contains server-side business logic. This file implements
// UserService, which handles registration and login.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/cryptox"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/models"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
)

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type UserService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService

	// decoySaltKey keys the stand-in salts handed out for unknown emails
	decoySaltKey []byte
}

func NewUserService(m repomanager.RepositoryManager, tokens *auth.TokenService) *UserService {
	return &UserService{
		repomanager:  m,
		tokens:       tokens,
		decoySaltKey: common.GenerateRandByteArray(32),
	}
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return common.NewValidationError("email", "is required")
	}
	if password == "" {
		return common.NewValidationError("password", "is required")
	}
	return nil
}

// Register creates a user with a bcrypt hash of the login secret. salt is
// the KDF salt the client derived its keys with; nil asks for a fresh one.
func (s *UserService) Register(ctx context.Context, email, password string, salt []byte) (*models.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if !strings.Contains(email, "@") {
		return nil, common.NewValidationError("email", "invalid email")
	}
	if salt == nil {
		salt = cryptox.NewSalt()
	}
	if len(salt) != cryptox.SaltSize {
		return nil, common.NewValidationError("kdfSalt", fmt.Sprintf("must be %d bytes", cryptox.SaltSize))
	}

	hash, err := cryptox.HashPassword([]byte(password))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		KDFSalt:      salt,
	}

	user, err = s.repomanager.Users().Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return user, nil
}

// Salt returns the KDF salt the client needs before it can compute its
// login secret. Unknown emails get a stable decoy so the answer does not
// reveal whether an account exists.
func (s *UserService) Salt(ctx context.Context, email string) ([]byte, error) {
	if strings.TrimSpace(email) == "" {
		return nil, common.NewValidationError("email", "is required")
	}

	user, err := s.repomanager.Users().GetUserByEmail(ctx, email)
	if errors.Is(err, common.ErrorNotFound) {
		mac := hmac.New(sha256.New, s.decoySaltKey)
		mac.Write([]byte(email))
		return mac.Sum(nil)[:cryptox.SaltSize], nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user.KDFSalt, nil
}

// Login checks the password and issues a token. An unknown email and a wrong
// password produce the same error and roughly the same latency.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.BurnPasswordCheck([]byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if !cryptox.CheckPassword([]byte(password), user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("error issuing token: %w", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
