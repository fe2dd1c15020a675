package chat

import (
	"errors"
	"strings"
	"time"
)

// MessageType tags the content payload. The server treats content as opaque;
// the tag only tells clients how to render it.
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
	MessageTypeFile  MessageType = "file"
)

// Domain-level errors for messaging behaviors.
var (
	ErrEmptyContent    = errors.New("chat: message content is empty")
	ErrSelfAddressed   = errors.New("chat: sender and receiver are the same user")
	ErrBadMessageType  = errors.New("chat: unsupported message type")
	ErrMissingReceiver = errors.New("chat: receiver is required")
)

// Message is an immutable log entry in a two-party thread. ID and Timestamp
// are assigned by the store at persistence time; the core never mutates a
// message after creation (the read flag is maintained elsewhere).
type Message struct {
	ID           int64       `db:"id"`
	SenderID     int64       `db:"sender_id"`
	ReceiverID   int64       `db:"receiver_id"`
	Content      string      `db:"content"`
	MessageType  MessageType `db:"message_type"`
	AttachmentID *int64      `db:"attachment_id"`
	Timestamp    time.Time   `db:"timestamp"`
	IsRead       bool        `db:"is_read"`
}

// NewMessage validates and shapes a message ready to persist.
func NewMessage(senderID, receiverID int64, content string, msgType MessageType, attachmentID *int64) (*Message, error) {
	if receiverID == 0 {
		return nil, ErrMissingReceiver
	}
	if senderID == receiverID {
		return nil, ErrSelfAddressed
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	if msgType == "" {
		msgType = MessageTypeText
	}
	switch msgType {
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
	default:
		return nil, ErrBadMessageType
	}

	return &Message{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		Content:      content,
		MessageType:  msgType,
		AttachmentID: attachmentID,
	}, nil
}

// PartnerOf returns the other party of the message's conversation key.
func (m Message) PartnerOf(userID int64) int64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves tells whether userID is a party to this message.
func (m Message) Involves(userID int64) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}
