package auth

import (
	"context"
	"errors"

	repository "whisp/internal/repository/port"
)

// Verification failures. Anything else out of Verify is an internal fault.
var (
	// ErrInvalidCredential: the token is malformed, expired or forged.
	ErrInvalidCredential = errors.New("auth: invalid credential")
	// ErrUnknownPrincipal: the token is well-formed but its subject no longer
	// resolves to an account.
	ErrUnknownPrincipal = errors.New("auth: unknown principal")
)

// Identity is the resolved principal of a verified credential.
type Identity struct {
	ID        int64
	Username  string
	PublicKey string
}

// Authenticator validates a bearer credential and yields the caller's
// identity. The realtime and HTTP layers consume only this contract.
type Authenticator interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// TokenAuthenticator verifies JWT access tokens and resolves the subject
// against the user store.
type TokenAuthenticator struct {
	tokens *TokenManager
	users  repository.UserRepository
}

func NewTokenAuthenticator(tokens *TokenManager, users repository.UserRepository) *TokenAuthenticator {
	return &TokenAuthenticator{tokens: tokens, users: users}
}

var _ Authenticator = (*TokenAuthenticator)(nil)

func (a *TokenAuthenticator) Verify(ctx context.Context, token string) (Identity, error) {
	claims, err := a.tokens.ParseAccess(token)
	if err != nil {
		return Identity{}, ErrInvalidCredential
	}

	user, err := a.users.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, repository.ErrUserNotFound) {
		return Identity{}, ErrUnknownPrincipal
	}
	if err != nil {
		return Identity{}, err
	}
	return Identity{ID: user.ID, Username: user.Username, PublicKey: user.PublicKey}, nil
}
