package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "whisp/internal/repository/port"
)

// PgUserRepository implements repository.UserRepository on PostgreSQL.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) Create(ctx context.Context, u repository.User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (user_name, email, password, public_key, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id
	`, u.Username, u.Email, u.PasswordHash, u.PublicKey).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: unique_violation on user_name or email
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, repository.ErrUsernameTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *PgUserRepository) FindByID(ctx context.Context, id int64) (*repository.User, error) {
	return r.findBy(ctx, `WHERE id = $1`, id)
}

func (r *PgUserRepository) FindByUsername(ctx context.Context, username string) (*repository.User, error) {
	return r.findBy(ctx, `WHERE user_name = $1`, username)
}

func (r *PgUserRepository) UpdatePublicKey(ctx context.Context, id int64, publicKey string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE users SET public_key = $2 WHERE id = $1`, id, publicKey)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (r *PgUserRepository) findBy(ctx context.Context, where string, arg any) (*repository.User, error) {
	var u repository.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_name, email, password, public_key, created_at
		FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PublicKey, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
