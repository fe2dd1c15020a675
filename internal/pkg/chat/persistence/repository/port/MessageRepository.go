package repository

import (
	"context"
	"errors"
	"time"

	chat "whisp/internal/pkg/chat/application/domain"
)

// Typed failures of the message store. Callers branch with errors.Is; anything
// else coming out of an implementation is an internal fault.
var (
	// ErrUnknownReceiver: the receiver id does not resolve to a user.
	ErrUnknownReceiver = errors.New("message store: receiver does not exist")
	// ErrUnknownPartner: the queried conversation partner does not exist as a
	// user at all (distinct from "exists but has no history").
	ErrUnknownPartner = errors.New("message store: partner does not exist")
	// ErrStoreUnavailable: transient persistence failure; safe to retry.
	ErrStoreUnavailable = errors.New("message store: unavailable")
)

// MessageRepository persists and queries the message log.
type MessageRepository interface {
	// Append persists a new message, letting the store assign id and
	// timestamp, and returns the stored record. Fails with ErrUnknownReceiver
	// or ErrStoreUnavailable.
	Append(ctx context.Context, m chat.Message) (*chat.Message, error)

	// Thread returns messages of the conversation {userID, partnerID} in
	// descending timestamp order, strictly before the cursor when non-nil,
	// capped at limit. Fails with ErrUnknownPartner when partnerID is not a
	// user; returns an empty slice when there is simply no history.
	Thread(ctx context.Context, userID, partnerID int64, before *time.Time, limit int) ([]chat.Message, error)

	// Recent returns every message involving userID in descending timestamp
	// order.
	Recent(ctx context.Context, userID int64) ([]chat.Message, error)
}
