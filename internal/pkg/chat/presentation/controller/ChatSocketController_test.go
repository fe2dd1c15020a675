package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	qport "whisp/internal/infrastructure/queue/port"
	"whisp/internal/infrastructure/realtime"
	"whisp/internal/pkg/auth"
	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
)

// scriptReader feeds a fixed sequence of inbound frames, then fails with
// finalErr like a closing socket would.
type scriptReader struct {
	frames   []string
	idx      int
	finalErr error
}

func (r *scriptReader) ReadMessage() (int, []byte, error) {
	if r.idx < len(r.frames) {
		f := r.frames[r.idx]
		r.idx++
		return websocket.TextMessage, []byte(f), nil
	}
	if r.finalErr == nil {
		return 0, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	return 0, nil, r.finalErr
}

// chanWire exposes frames written by the connection's write loop.
type chanWire struct {
	frames chan []byte
}

func newChanWire() *chanWire {
	return &chanWire{frames: make(chan []byte, 64)}
}

func (w *chanWire) WriteMessage(messageType int, data []byte) error {
	if messageType == websocket.TextMessage {
		cp := make([]byte, len(data))
		copy(cp, data)
		w.frames <- cp
	}
	return nil
}

func (w *chanWire) WriteControl(int, []byte, time.Time) error { return nil }
func (w *chanWire) SetWriteDeadline(time.Time) error          { return nil }
func (w *chanWire) Close() error                              { return nil }

func (w *chanWire) next(t *testing.T) map[string]any {
	t.Helper()
	select {
	case raw := <-w.frames:
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		return decoded
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received in time")
		return nil
	}
}

func (w *chanWire) expectNone(t *testing.T) {
	t.Helper()
	select {
	case raw := <-w.frames:
		t.Fatalf("unexpected frame: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

// stubStore implements the message repository with a scripted Append.
type stubStore struct {
	mu        sync.Mutex
	users     map[int64]bool
	appendErr error
	nextID    int64
	clock     time.Time
	appended  []chat.Message
}

func newStubStore(userIDs ...int64) *stubStore {
	s := &stubStore{users: make(map[int64]bool), clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, id := range userIDs {
		s.users[id] = true
	}
	return s
}

func (s *stubStore) Append(_ context.Context, m chat.Message) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	if !s.users[m.ReceiverID] {
		return nil, repository.ErrUnknownReceiver
	}
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	m.ID = s.nextID
	m.Timestamp = s.clock
	s.appended = append(s.appended, m)
	return &m, nil
}

func (s *stubStore) Thread(context.Context, int64, int64, *time.Time, int) ([]chat.Message, error) {
	return nil, nil
}

func (s *stubStore) Recent(context.Context, int64) ([]chat.Message, error) { return nil, nil }

func (s *stubStore) appendCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appended)
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []qport.Task
}

func (q *fakeQueue) Enqueue(_ context.Context, t qport.Task, _ ...qport.EnqueueOption) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return "task-id", nil
}

func (q *fakeQueue) Close() error { return nil }

type fakeAuthn struct {
	identity auth.Identity
	err      error
}

func (a *fakeAuthn) Verify(context.Context, string) (auth.Identity, error) {
	return a.identity, a.err
}

func newServeFixture(store repository.MessageRepository, queue qport.Client) (*ChatSocketController, *realtime.Registry) {
	registry := realtime.NewRegistry()
	ctl := NewChatSocketController(store, registry, &fakeAuthn{}, queue, 0, 0)
	return ctl, registry
}

func startConn(t *testing.T, registry *realtime.Registry, userID int64) (*realtime.Connection, *chanWire) {
	t.Helper()
	wire := newChanWire()
	conn := realtime.NewConnection(userID, wire)
	conn.Start()
	registry.Register(conn)
	t.Cleanup(func() {
		registry.Unregister(conn)
		conn.Close(websocket.CloseNormalClosure, "test done")
	})
	return conn, wire
}

func TestServeDeliversToSenderAndReceiver(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	ctl, registry := newServeFixture(store, nil)

	sender, senderWire := startConn(t, registry, 7)
	_, receiverWire := startConn(t, registry, 9)

	reader := &scriptReader{frames: []string{
		`{"receiverID":9,"content":"hi","messageType":"text"}`,
	}}
	code, _ := ctl.serve(context.Background(), sender, reader)
	req.Equal(websocket.CloseNormalClosure, code)

	req.Equal(1, store.appendCount())

	for _, wire := range []*chanWire{senderWire, receiverWire} {
		frame := wire.next(t)
		req.Equal("message", frame["type"])
		msg := frame["message"].(map[string]any)
		req.Equal(float64(7), msg["sender_id"])
		req.Equal(float64(9), msg["receiver_id"])
		req.Equal("hi", msg["content"])
		req.Equal("text", msg["message_type"])
	}
}

func TestServePreservesPerConnectionOrder(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	ctl, registry := newServeFixture(store, nil)

	sender, senderWire := startConn(t, registry, 7)
	_, receiverWire := startConn(t, registry, 9)

	const n = 10
	frames := make([]string, n)
	for i := range frames {
		frames[i] = fmt.Sprintf(`{"receiverID":9,"content":"m%d","messageType":"text"}`, i)
	}
	ctl.serve(context.Background(), sender, &scriptReader{frames: frames})

	req.Equal(n, store.appendCount())
	for i := 1; i < n; i++ {
		req.True(!store.appended[i].Timestamp.Before(store.appended[i-1].Timestamp))
	}

	for _, wire := range []*chanWire{senderWire, receiverWire} {
		for i := 0; i < n; i++ {
			frame := wire.next(t)
			msg := frame["message"].(map[string]any)
			req.Equal(fmt.Sprintf("m%d", i), msg["content"])
		}
	}
}

func TestServeMalformedJSONIsRecoverable(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	ctl, registry := newServeFixture(store, nil)
	sender, senderWire := startConn(t, registry, 7)

	reader := &scriptReader{frames: []string{
		`{not json`,
		`{"receiverID":9,"content":"still here","messageType":"text"}`,
	}}
	code, _ := ctl.serve(context.Background(), sender, reader)
	req.Equal(websocket.CloseNormalClosure, code)

	frame := senderWire.next(t)
	req.Equal("error", frame["type"])
	req.Equal("invalid_format", frame["code"])

	// The loop continued and no store call happened for the bad frame.
	frame = senderWire.next(t)
	req.Equal("message", frame["type"])
	req.Equal(1, store.appendCount())
}

func TestServeValidationFailureIsRecoverable(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	ctl, registry := newServeFixture(store, nil)
	sender, senderWire := startConn(t, registry, 7)

	reader := &scriptReader{frames: []string{
		`{"receiverID":9,"messageType":"text"}`,
		`{"receiverID":9,"content":"x","messageType":"carrier-pigeon"}`,
	}}
	ctl.serve(context.Background(), sender, reader)

	for i := 0; i < 2; i++ {
		frame := senderWire.next(t)
		req.Equal("error", frame["type"])
		req.Equal("validation_error", frame["code"])
	}
	req.Equal(0, store.appendCount())
}

func TestServeUnknownReceiverIsRecoverable(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	ctl, registry := newServeFixture(store, nil)
	sender, senderWire := startConn(t, registry, 7)

	reader := &scriptReader{frames: []string{
		`{"receiverID":404,"content":"hello?","messageType":"text"}`,
	}}
	code, _ := ctl.serve(context.Background(), sender, reader)
	req.Equal(websocket.CloseNormalClosure, code)

	frame := senderWire.next(t)
	req.Equal("unknown_receiver", frame["code"])
}

func TestServeStoreFailureIsRecoverable(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	store.appendErr = repository.ErrStoreUnavailable
	ctl, registry := newServeFixture(store, nil)
	sender, senderWire := startConn(t, registry, 7)

	reader := &scriptReader{frames: []string{
		`{"receiverID":9,"content":"hi","messageType":"text"}`,
	}}
	code, _ := ctl.serve(context.Background(), sender, reader)
	req.Equal(websocket.CloseNormalClosure, code)

	frame := senderWire.next(t)
	req.Equal("store_unavailable", frame["code"])
}

func TestServeUnclassifiedFaultClosesConnection(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	store.appendErr = errors.New("registry corruption")
	ctl, registry := newServeFixture(store, nil)
	sender, senderWire := startConn(t, registry, 7)

	reader := &scriptReader{frames: []string{
		`{"receiverID":9,"content":"hi","messageType":"text"}`,
		`{"receiverID":9,"content":"never read","messageType":"text"}`,
	}}
	code, _ := ctl.serve(context.Background(), sender, reader)
	req.Equal(websocket.CloseInternalServerErr, code)
	req.Equal(1, reader.idx) // loop exited on the fault, second frame unread
	senderWire.expectNone(t)
}

func TestServeEnqueuesOfflineNotification(t *testing.T) {
	req := require.New(t)
	store := newStubStore(7, 9)
	queue := &fakeQueue{}
	ctl, registry := newServeFixture(store, queue)
	sender, _ := startConn(t, registry, 7)
	// Receiver 9 has no registered connection.

	reader := &scriptReader{frames: []string{
		`{"receiverID":9,"content":"hi","messageType":"text"}`,
	}}
	ctl.serve(context.Background(), sender, reader)

	queue.mu.Lock()
	defer queue.mu.Unlock()
	req.Len(queue.tasks, 1)
	req.Equal("chat:notify_offline", queue.tasks[0].Type)
	req.Contains(string(queue.tasks[0].Payload), `"receiverId":9`)
}

func TestHandshakeRejectsBadCredential(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)

	registry := realtime.NewRegistry()
	ctl := NewChatSocketController(newStubStore(), registry, &fakeAuthn{err: auth.ErrInvalidCredential}, nil, 0, 0)

	r := gin.New()
	r.GET("/ws", ctl.Handle())
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=expired"
	ws, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.NoError(err)
	if resp != nil {
		req.Equal(http.StatusSwitchingProtocols, resp.StatusCode)
	}
	defer ws.Close()

	_, _, err = ws.ReadMessage()
	var closeErr *websocket.CloseError
	req.ErrorAs(err, &closeErr)
	req.Equal(websocket.ClosePolicyViolation, closeErr.Code)

	// Nothing was registered before the policy check.
	req.Equal(0, registry.Connections(0))
}
