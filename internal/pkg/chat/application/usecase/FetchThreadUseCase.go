package usecase

import (
	"context"
	"time"

	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultThreadLimit = 20
	maxThreadLimit     = 100
)

// FetchThreadInput pages backward through the conversation {UserID, PartnerID}.
// Before is an exclusive upper timestamp bound; nil means the most recent page.
type FetchThreadInput struct {
	UserID    int64
	PartnerID int64
	Before    *time.Time
	Limit     int
}

// FetchThreadUseCase answers paginated history queries for one conversation.
type FetchThreadUseCase struct {
	Repo repository.MessageRepository
}

func NewFetchThreadUseCase(repo repository.MessageRepository) *FetchThreadUseCase {
	return &FetchThreadUseCase{Repo: repo}
}

// Execute returns at most Limit records, timestamp-descending, all strictly
// before the cursor. A partner with no shared history yields an empty slice;
// a partner id that is not a user at all fails with
// repository.ErrUnknownPartner.
func (uc *FetchThreadUseCase) Execute(ctx context.Context, in FetchThreadInput) ([]chat.Message, error) {
	limit := in.Limit
	if limit <= 0 {
		limit = defaultThreadLimit
	}
	if limit > maxThreadLimit {
		limit = maxThreadLimit
	}
	return uc.Repo.Thread(ctx, in.UserID, in.PartnerID, in.Before, limit)
}
