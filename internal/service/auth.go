package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

const (
	maxUsernameLength = 255
	maxPasswordLength = 1024
	// Tokens from crypto.NewToken are 43 characters; anything much longer is garbage.
	maxTokenLength = 512
)

// AuthService verifies credentials, issues bearer tokens and resolves them back to accounts.
type AuthService struct {
	repo      *repository.AccountRepository
	params    crypto.HashParams
	tokenTTL  time.Duration
	dummyHash string
	now       func() time.Time
}

// NewAuthService creates a new AuthService. A zero tokenTTL disables expiry.
func NewAuthService(repo *repository.AccountRepository, params crypto.HashParams, tokenTTL time.Duration) (*AuthService, error) {
	// Verified against on unknown usernames so both failure paths cost one Argon2id run.
	dummy, err := crypto.HashPasswordWithParams("contactbook-dummy-password", params)
	if err != nil {
		return nil, fmt.Errorf("preparing dummy hash: %w", err)
	}

	return &AuthService{
		repo:      repo,
		params:    params,
		tokenTTL:  tokenTTL,
		dummyHash: dummy,
		now:       time.Now,
	}, nil
}

// Register creates a new account. The account has no token until its first login.
func (s *AuthService) Register(ctx context.Context, req model.CredentialsRequest) (model.AccountResponse, error) {
	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		return model.AccountResponse{}, validationError("username is required")
	case len(username) > maxUsernameLength:
		return model.AccountResponse{}, validationError("username must be at most %d characters", maxUsernameLength)
	case strings.Contains(username, ":"):
		// Basic auth splits on the first colon, so such a name could never log in.
		return model.AccountResponse{}, validationError("username must not contain ':'")
	case req.Password == "":
		return model.AccountResponse{}, validationError("password is required")
	case len(req.Password) > maxPasswordLength:
		return model.AccountResponse{}, validationError("password must be at most %d characters", maxPasswordLength)
	}

	hash, err := crypto.HashPasswordWithParams(req.Password, s.params)
	if err != nil {
		return model.AccountResponse{}, &Error{Kind: KindInternal, Msg: ErrInternal.Msg, Err: err}
	}

	account := &model.Account{Username: username, PasswordHash: hash}
	if err := s.repo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return model.AccountResponse{}, ErrUsernameTaken
		}
		return model.AccountResponse{}, storeError(err)
	}

	slog.InfoContext(ctx, "account registered", "account_id", account.ID)

	return model.AccountResponse{ID: account.ID, Username: account.Username}, nil
}

// Authenticate verifies the credentials and rotates the account's bearer
// token, invalidating the previous one. Unknown usernames and wrong passwords
// fail identically with ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, error) {
	account, err := s.repo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrAccountNotFound) {
		return "", storeError(err)
	}

	encoded := s.dummyHash
	if account != nil {
		encoded = account.PasswordHash
	}

	match, err := crypto.VerifyPassword(password, encoded)
	if err != nil {
		return "", &Error{Kind: KindInternal, Msg: ErrInternal.Msg, Err: fmt.Errorf("stored hash: %w", err)}
	}
	if account == nil || !match {
		return "", ErrInvalidCredentials
	}

	token, err := crypto.NewToken()
	if err != nil {
		return "", &Error{Kind: KindInternal, Msg: ErrInternal.Msg, Err: err}
	}

	if err := s.repo.RotateToken(ctx, account.ID, crypto.TokenDigest(token), s.now().Unix()); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", storeError(err)
	}

	slog.InfoContext(ctx, "token issued", "account_id", account.ID)

	return token, nil
}

// Resolve returns the account whose current token is token. Missing,
// malformed, superseded and expired tokens all fail with ErrInvalidToken.
func (s *AuthService) Resolve(ctx context.Context, token string) (model.Account, error) {
	if token == "" || len(token) > maxTokenLength {
		return model.Account{}, ErrInvalidToken
	}

	digest := crypto.TokenDigest(token)
	account, err := s.repo.GetByTokenHash(ctx, digest)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return model.Account{}, ErrInvalidToken
		}
		return model.Account{}, storeError(err)
	}

	if !crypto.DigestsEqual(account.TokenHash, digest) {
		return model.Account{}, ErrInvalidToken
	}

	if s.tokenTTL > 0 && s.now().Sub(time.Unix(account.TokenIssuedAt, 0)) > s.tokenTTL {
		slog.DebugContext(ctx, "expired token presented", "account_id", account.ID)
		return model.Account{}, ErrInvalidToken
	}

	return model.Account{
		ID:            account.ID,
		Username:      account.Username,
		TokenHash:     account.TokenHash,
		TokenIssuedAt: account.TokenIssuedAt,
	}, nil
}
