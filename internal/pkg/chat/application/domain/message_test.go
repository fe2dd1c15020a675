package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessage(t *testing.T) {
	req := require.New(t)

	msg, err := NewMessage(7, 9, "  hello  ", "", nil)
	req.NoError(err)
	req.Equal("hello", msg.Content)
	req.Equal(MessageTypeText, msg.MessageType) // empty tag defaults to text
	req.Zero(msg.ID)
	req.True(msg.Timestamp.IsZero()) // store-assigned

	tests := []struct {
		name     string
		sender   int64
		receiver int64
		content  string
		msgType  MessageType
		wantErr  error
	}{
		{"missing receiver", 7, 0, "hi", MessageTypeText, ErrMissingReceiver},
		{"self addressed", 7, 7, "hi", MessageTypeText, ErrSelfAddressed},
		{"blank content", 7, 9, "   ", MessageTypeText, ErrEmptyContent},
		{"bad type", 7, 9, "hi", "smoke-signal", ErrBadMessageType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMessage(tt.sender, tt.receiver, tt.content, tt.msgType, nil)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConversationKeyHelpers(t *testing.T) {
	req := require.New(t)
	m := Message{SenderID: 7, ReceiverID: 9}

	req.Equal(int64(9), m.PartnerOf(7))
	req.Equal(int64(7), m.PartnerOf(9))
	req.True(m.Involves(7))
	req.True(m.Involves(9))
	req.False(m.Involves(3))
}
