package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"whisp/internal/infrastructure/metrics"
	qport "whisp/internal/infrastructure/queue/port"
	"whisp/internal/infrastructure/realtime"
	"whisp/internal/pkg/auth"
	chat "whisp/internal/pkg/chat/application/domain"
	"whisp/internal/pkg/chat/application/task"
	"whisp/internal/pkg/chat/application/usecase"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

const (
	defaultReadTimeout = 60 * time.Second
	inflightTimeout    = 5 * time.Second
)

var validate = validator.New()

// ChatSocketController owns the websocket endpoint: it authenticates the
// handshake, registers the socket in the hub and drives the receive loop
// until the connection closes.
type ChatSocketController struct {
	registry *realtime.Registry
	authn    auth.Authenticator
	sendUC   *usecase.SendMessageUseCase
	queue    qport.Client // nil disables offline notifications

	messageRate  float64
	messageBurst int
}

func NewChatSocketController(repo repository.MessageRepository, registry *realtime.Registry, authn auth.Authenticator, queue qport.Client, messageRate float64, messageBurst int) *ChatSocketController {
	return &ChatSocketController{
		registry:     registry,
		authn:        authn,
		sendUC:       usecase.NewSendMessageUseCase(repo),
		queue:        queue,
		messageRate:  messageRate,
		messageBurst: messageBurst,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Clients are native apps presenting bearer tokens; origin is not
		// meaningful here.
		return true
	},
}

// inboundMessage is the single frame kind clients may send on the socket.
// Unknown or missing fields are rejected before any store call.
type inboundMessage struct {
	ReceiverID   int64  `json:"receiverID" validate:"required"`
	Content      string `json:"content" validate:"required"`
	MessageType  string `json:"messageType" validate:"required,oneof=text image file"`
	AttachmentID *int64 `json:"attachmentID,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type string `json:"type"`
}

type outboundMessage struct {
	Type    string         `json:"type"`
	Message messagePayload `json:"message"`
}

type messagePayload struct {
	ID           int64     `json:"id"`
	SenderID     int64     `json:"sender_id"`
	ReceiverID   int64     `json:"receiver_id"`
	Content      string    `json:"content"`
	MessageType  string    `json:"message_type"`
	AttachmentID *int64    `json:"attachment_id,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// payloadReader is the read side of the socket; *websocket.Conn satisfies it.
type payloadReader interface {
	ReadMessage() (int, []byte, error)
}

// Handle upgrades the HTTP request and walks the connection through
// handshake, serving and teardown. It returns only once the connection is
// closed, and the socket is unregistered from the hub on every exit path.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response.
			return
		}

		identity, err := ctl.authn.Verify(c.Request.Context(), token)
		if err != nil {
			// Bad or missing credential: policy violation before any
			// registration, no retry at this layer.
			closeSocket(ws, websocket.ClosePolicyViolation, "invalid credential")
			return
		}

		conn := realtime.NewConnection(identity.ID, ws)
		conn.Start()
		ctl.registry.Register(conn)

		code, reason := websocket.CloseNormalClosure, "session closed"
		defer func() {
			ctl.registry.Unregister(conn)
			conn.Close(code, reason)
		}()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		if payload, err := json.Marshal(ackFrame{Type: "connected"}); err == nil {
			_ = conn.Send(payload)
		}

		code, reason = ctl.serve(c.Request.Context(), conn, ws)
	}
}

// serve runs the receive loop for one authenticated, registered connection.
// Per-message failures are replied inline and the loop continues; only
// transport errors and unclassified faults end the session. The returned
// close code is reported to the peer.
func (ctl *ChatSocketController) serve(ctx context.Context, conn *realtime.Connection, reader payloadReader) (code int, reason string) {
	var limiter *rate.Limiter
	if ctl.messageRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(ctl.messageRate), ctl.messageBurst)
	}

	for {
		_, data, err := reader.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
				errors.Is(err, websocket.ErrCloseSent) {
				return websocket.CloseNormalClosure, "session closed"
			}
			// Transport failure; the peer is gone and nothing can be sent back.
			return websocket.CloseNormalClosure, "connection lost"
		}

		if limiter != nil && !limiter.Allow() {
			ctl.replyError(conn, "rate_limited", "too many messages, slow down")
			continue
		}

		var frame inboundMessage
		if err := json.Unmarshal(data, &frame); err != nil {
			ctl.replyError(conn, "invalid_format", "invalid JSON payload")
			continue
		}
		if err := validate.Struct(frame); err != nil {
			ctl.replyError(conn, "validation_error", err.Error())
			continue
		}

		msgCtx, cancel := context.WithTimeout(ctx, inflightTimeout)
		msg, err := ctl.sendUC.Execute(msgCtx, usecase.SendMessageInput{
			SenderID:     conn.UserID,
			ReceiverID:   frame.ReceiverID,
			Content:      frame.Content,
			MessageType:  chat.MessageType(frame.MessageType),
			AttachmentID: frame.AttachmentID,
		})
		cancel()
		if err != nil {
			if fatal := ctl.replySendError(conn, err); fatal {
				return websocket.CloseInternalServerErr, "internal error"
			}
			continue
		}

		metrics.MessagesPersisted.Inc()

		payload, err := json.Marshal(outboundMessage{Type: "message", Message: toPayload(*msg)})
		if err != nil {
			return websocket.CloseInternalServerErr, "internal error"
		}

		// Fan out to the receiver and to the sender's other devices. Failed
		// targets are cleaned up by the registry without affecting the rest.
		deliveredToReceiver := ctl.registry.Broadcast(msg.ReceiverID, payload)
		ctl.registry.Broadcast(msg.SenderID, payload)

		if deliveredToReceiver == 0 && ctl.queue != nil {
			ctl.notifyOffline(ctx, msg)
		}
	}
}

// replySendError maps a send-path failure onto an inline error frame and
// reports whether the failure is connection-fatal instead.
func (ctl *ChatSocketController) replySendError(conn *realtime.Connection, err error) (fatal bool) {
	switch {
	case errors.Is(err, repository.ErrUnknownReceiver):
		ctl.replyError(conn, "unknown_receiver", "receiver does not exist")
	case errors.Is(err, repository.ErrStoreUnavailable):
		ctl.replyError(conn, "store_unavailable", "message could not be stored, try again")
	case errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrSelfAddressed),
		errors.Is(err, chat.ErrBadMessageType),
		errors.Is(err, chat.ErrMissingReceiver):
		ctl.replyError(conn, "validation_error", err.Error())
	default:
		slog.Error("unclassified send failure, closing connection", "user_id", conn.UserID, "error", err)
		return true
	}
	return false
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code, message string) {
	metrics.MessageErrors.WithLabelValues(code).Inc()
	if payload, err := json.Marshal(errorFrame{Type: "error", Code: code, Error: message}); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) notifyOffline(ctx context.Context, msg *chat.Message) {
	taskCtx, cancel := context.WithTimeout(ctx, inflightTimeout)
	defer cancel()
	err := task.EnqueueNotifyOffline(taskCtx, ctl.queue, task.NotifyOfflinePayload{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
	})
	if err != nil {
		slog.Warn("offline notification enqueue failed", "message_id", msg.ID, "error", err)
	}
}

func closeSocket(ws *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(time.Second)
	_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = ws.Close()
}

func toPayload(msg chat.Message) messagePayload {
	return messagePayload{
		ID:           msg.ID,
		SenderID:     msg.SenderID,
		ReceiverID:   msg.ReceiverID,
		Content:      msg.Content,
		MessageType:  string(msg.MessageType),
		AttachmentID: msg.AttachmentID,
		Timestamp:    msg.Timestamp,
	}
}
