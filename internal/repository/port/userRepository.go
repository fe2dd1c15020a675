package repository

import (
	"context"
	"errors"
	"time"
)

// User is an account as the rest of the app sees it. PasswordHash never
// leaves this layer; PublicKey is opaque client key material used for
// end-to-end encryption.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"user_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password"`
	PublicKey    string    `db:"public_key"`
	CreatedAt    time.Time `db:"created_at"`
}

var (
	ErrUserNotFound  = errors.New("user repository: user not found")
	ErrUsernameTaken = errors.New("user repository: username already taken")
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	Create(ctx context.Context, u User) (int64, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	UpdatePublicKey(ctx context.Context, id int64, publicKey string) error
}
