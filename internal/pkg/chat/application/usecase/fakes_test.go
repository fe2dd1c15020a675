package usecase

import (
	"context"
	"sort"
	"time"

	chat "whisp/internal/pkg/chat/application/domain"
	repository "whisp/internal/pkg/chat/persistence/repository/port"
	users "whisp/internal/repository/port"
)

// memStore is an in-memory MessageRepository with store-assigned ids and
// strictly increasing timestamps.
type memStore struct {
	users     map[int64]bool
	msgs      []chat.Message
	nextID    int64
	clock     time.Time
	appendErr error
	appendCnt int
}

func newMemStore(userIDs ...int64) *memStore {
	s := &memStore{
		users: make(map[int64]bool),
		clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, id := range userIDs {
		s.users[id] = true
	}
	return s
}

func (s *memStore) Append(_ context.Context, m chat.Message) (*chat.Message, error) {
	s.appendCnt++
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
	s.msgs = append(s.msgs, m)
	return &m, nil
}

func (s *memStore) Thread(_ context.Context, userID, partnerID int64, before *time.Time, limit int) ([]chat.Message, error) {
	if !s.users[partnerID] {
		return nil, repository.ErrUnknownPartner
	}
	out := []chat.Message{}
	for _, m := range s.msgs {
		if !m.Involves(userID) || m.PartnerOf(userID) != partnerID {
			continue
		}
		if before != nil && !m.Timestamp.Before(*before) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Recent(_ context.Context, userID int64) ([]chat.Message, error) {
	out := []chat.Message{}
	for _, m := range s.msgs {
		if m.Involves(userID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

var _ repository.MessageRepository = (*memStore)(nil)

// memUsers is an in-memory UserRepository; only FindByID is exercised here.
type memUsers struct {
	byID map[int64]users.User
}

func newMemUsers(list ...users.User) *memUsers {
	m := &memUsers{byID: make(map[int64]users.User)}
	for _, u := range list {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(context.Context, users.User) (int64, error) { return 0, nil }

func (m *memUsers) FindByID(_ context.Context, id int64) (*users.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, users.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*users.User, error) {
	for _, u := range m.byID {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, users.ErrUserNotFound
}

func (m *memUsers) UpdatePublicKey(context.Context, int64, string) error { return nil }

var _ users.UserRepository = (*memUsers)(nil)
