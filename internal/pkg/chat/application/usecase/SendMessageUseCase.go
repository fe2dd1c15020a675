package usecase

import (
	"context"

	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries everything needed to persist one direct message.
// SenderID is the authenticated principal, never taken from the payload.
type SendMessageInput struct {
	SenderID     int64
	ReceiverID   int64
	Content      string
	MessageType  chat.MessageType
	AttachmentID *int64
}

// SendMessageUseCase validates and persists a direct message. The store
// assigns id and timestamp; broadcasting the result is the caller's concern.
type SendMessageUseCase struct {
	Repo repository.MessageRepository
}

func NewSendMessageUseCase(repo repository.MessageRepository) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo}
}

// Execute returns the stored record on success. Failures are the domain
// validation errors, repository.ErrUnknownReceiver, or
// repository.ErrStoreUnavailable; all are recoverable for the caller.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	msg, err := chat.NewMessage(in.SenderID, in.ReceiverID, in.Content, in.MessageType, in.AttachmentID)
	if err != nil {
		return nil, err
	}
	return uc.Repo.Append(ctx, *msg)
}
