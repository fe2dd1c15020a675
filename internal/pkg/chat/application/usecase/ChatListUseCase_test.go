package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	chat "whisp/internal/pkg/chat/application/domain"
	users "whisp/internal/repository/port"
)

func chatListFixture() (*memStore, *memUsers) {
	store := newMemStore(1, 2, 3, 4)
	accounts := newMemUsers(
		users.User{ID: 2, Username: "bea", PublicKey: "pk-bea"},
		users.User{ID: 3, Username: "cal", PublicKey: "pk-cal"},
		users.User{ID: 4, Username: "dee", PublicKey: "pk-dee"},
	)
	return store, accounts
}

func TestChatListOneEntryPerPartnerLatestFirst(t *testing.T) {
	req := require.New(t)
	store, accounts := chatListFixture()
	send := NewSendMessageUseCase(store)

	mustSend := func(sender, receiver int64, content string) chat.Message {
		msg, err := send.Execute(context.Background(), SendMessageInput{
			SenderID: sender, ReceiverID: receiver, Content: content, MessageType: chat.MessageTypeText,
		})
		req.NoError(err)
		return *msg
	}

	mustSend(1, 2, "old to bea")
	mustSend(3, 1, "old from cal")
	latestCal := mustSend(1, 3, "new to cal")
	latestBea := mustSend(2, 1, "new from bea")

	uc := NewChatListUseCase(store, accounts)
	entries, err := uc.Execute(context.Background(), 1)
	req.NoError(err)
	req.Len(entries, 2)

	// Recency-ordered: bea's thread was touched last.
	req.Equal(int64(2), entries[0].Partner.ID)
	req.Equal("bea", entries[0].Partner.Username)
	req.Equal(latestBea.ID, entries[0].Message.ID)

	req.Equal(int64(3), entries[1].Partner.ID)
	req.Equal(latestCal.ID, entries[1].Message.ID)

	// Each entry carries the maximum-timestamp record for that partner.
	req.True(entries[0].Message.Timestamp.After(entries[1].Message.Timestamp))
}

func TestChatListEmptyHistory(t *testing.T) {
	store, accounts := chatListFixture()
	uc := NewChatListUseCase(store, accounts)

	entries, err := uc.Execute(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestChatListSkipsDeletedPartners(t *testing.T) {
	req := require.New(t)
	store, accounts := chatListFixture()
	send := NewSendMessageUseCase(store)

	_, err := send.Execute(context.Background(), SendMessageInput{
		SenderID: 1, ReceiverID: 2, Content: "hi", MessageType: chat.MessageTypeText,
	})
	req.NoError(err)
	_, err = send.Execute(context.Background(), SendMessageInput{
		SenderID: 1, ReceiverID: 4, Content: "hi", MessageType: chat.MessageTypeText,
	})
	req.NoError(err)

	// dee's account is gone by the time the list is built.
	delete(accounts.byID, 4)

	uc := NewChatListUseCase(store, accounts)
	entries, err := uc.Execute(context.Background(), 1)
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal(int64(2), entries[0].Partner.ID)
}
