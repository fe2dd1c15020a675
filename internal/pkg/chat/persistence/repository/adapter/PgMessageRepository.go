package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

// PgMessageRepository implements the message store on PostgreSQL via pgx.
type PgMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPgMessageRepository(pool *pgxpool.Pool) *PgMessageRepository {
	return &PgMessageRepository{pool: pool}
}

var _ repository.MessageRepository = (*PgMessageRepository)(nil)

func (r *PgMessageRepository) Append(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, repository.ErrStoreUnavailable
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, m.ReceiverID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	if !exists {
		return nil, repository.ErrUnknownReceiver
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (sender_id, receiver_id, content, message_type, attachment_id, timestamp, is_read)
		VALUES ($1, $2, $3, $4, $5, now(), false)
		RETURNING id, timestamp
	`, m.SenderID, m.ReceiverID, m.Content, m.MessageType, m.AttachmentID).Scan(&m.ID, &m.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	return &m, nil
}

func (r *PgMessageRepository) Thread(ctx context.Context, userID, partnerID int64, before *time.Time, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, repository.ErrStoreUnavailable
	}

	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, partnerID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	if !exists {
		return nil, repository.ErrUnknownPartner
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, content, message_type, attachment_id, timestamp, is_read
		FROM messages
		WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
		  AND ($3::timestamptz IS NULL OR timestamp < $3)
		ORDER BY timestamp DESC
		LIMIT $4
	`, userID, partnerID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (r *PgMessageRepository) Recent(ctx context.Context, userID int64) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, repository.ErrStoreUnavailable
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, sender_id, receiver_id, content, message_type, attachment_id, timestamp, is_read
		FROM messages
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY timestamp DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]chat.Message, error) {
	msgs := []chat.Message{}
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &m.AttachmentID, &m.Timestamp, &m.IsRead); err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", repository.ErrStoreUnavailable, err)
	}
	return msgs, nil
}
