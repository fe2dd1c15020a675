package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
	users "whisp/internal/repository/port"
)

// PartnerInfo is the public slice of a conversation partner's account.
type PartnerInfo struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

// ChatListEntry pairs a partner with the most recent message exchanged with
// them.
type ChatListEntry struct {
	Partner PartnerInfo  `json:"partner"`
	Message chat.Message `json:"message"`
}

// ChatListUseCase builds the conversation-list view: exactly one entry per
// distinct partner, carrying the latest message of that thread.
type ChatListUseCase struct {
	Messages repository.MessageRepository
	Users    users.UserRepository
}

func NewChatListUseCase(messages repository.MessageRepository, u users.UserRepository) *ChatListUseCase {
	return &ChatListUseCase{Messages: messages, Users: u}
}

// Execute scans the user's full history in descending timestamp order and
// keeps the first record seen per partner. Partners are discovered
// incrementally, so the scan cannot stop early. The result is sorted by
// timestamp descending before returning; callers get a deterministic
// recency-ordered list regardless of scan order.
func (uc *ChatListUseCase) Execute(ctx context.Context, userID int64) ([]ChatListEntry, error) {
	history, err := uc.Messages.Recent(ctx, userID)
	if err != nil {
		return nil, err
	}

	latest := make(map[int64]chat.Message)
	var order []int64
	for _, m := range history {
		partnerID := m.PartnerOf(userID)
		if _, seen := latest[partnerID]; seen {
			continue
		}
		latest[partnerID] = m
		order = append(order, partnerID)
	}

	entries := make([]ChatListEntry, 0, len(order))
	for _, partnerID := range order {
		partner, err := uc.Users.FindByID(ctx, partnerID)
		if errors.Is(err, users.ErrUserNotFound) {
			// Partner account deleted since the thread existed; drop the entry.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		entries = append(entries, ChatListEntry{
			Partner: PartnerInfo{ID: partner.ID, Username: partner.Username, PublicKey: partner.PublicKey},
			Message: latest[partnerID],
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Message.Timestamp.After(entries[j].Message.Timestamp)
	})
	return entries, nil
}
