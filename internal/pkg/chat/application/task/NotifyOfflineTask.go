package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	qport "whisp/internal/infrastructure/queue/port"
)

// NotifyOfflineTaskType is the queue task name for messages whose receiver had
// no live connection at broadcast time.
const NotifyOfflineTaskType = "chat:notify_offline"

// NotifyOfflinePayload is the JSON payload transported via the queue.
type NotifyOfflinePayload struct {
	MessageID  int64 `json:"messageId"`
	SenderID   int64 `json:"senderId"`
	ReceiverID int64 `json:"receiverId"`
}

// EnqueueNotifyOffline schedules an offline notification. Delivery of the
// notification is best-effort; enqueue failures are the caller's to log.
func EnqueueNotifyOffline(ctx context.Context, client qport.Client, p NotifyOfflinePayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	_, err = client.Enqueue(ctx, qport.Task{Type: NotifyOfflineTaskType, Payload: payload}, qport.EnqueueOption{
		Queue:    "chat",
		MaxRetry: 3,
		// One notification per message, even if fan-out retries.
		UniqueTTL: time.Minute,
	})
	return err
}

// RegisterNotifyOfflineTask binds the handler to the worker server. The
// handler is the integration point for push providers; for now it records the
// event so a delivery backend can be attached without touching the send path.
func RegisterNotifyOfflineTask(srv qport.Server) {
	srv.Register(NotifyOfflineTaskType, func(ctx context.Context, t qport.Task) error {
		var p NotifyOfflinePayload
		if err := json.Unmarshal(t.Payload, &p); err != nil {
			// Malformed payload will never succeed; drop instead of retrying.
			return nil
		}
		slog.Info("offline message notification",
			"message_id", p.MessageID,
			"sender_id", p.SenderID,
			"receiver_id", p.ReceiverID,
		)
		return nil
	})
}
