package correlator

import (
	"context"
	"fmt"
	"sync"

	"github.com/dawnstudy/attendance/internal/attendance"
	"github.com/dawnstudy/attendance/internal/datastore"
	"github.com/dawnstudy/attendance/internal/discord"
	"github.com/dawnstudy/attendance/internal/errors"
)

type fakeChannel struct {
	mu       sync.Mutex
	next     int
	messages map[string]string
	calls    []string
	sendErr  error
	editErr  error
	deleteFn func(id string) error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{next: 100, messages: map[string]string{}}
}

func (f *fakeChannel) Send(_ context.Context, content string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "send")
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.next++
	id := fmt.Sprint(f.next)
	f.messages[id] = content
	return id, nil
}

func (f *fakeChannel) Edit(_ context.Context, id, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "edit:"+id)
	if f.editErr != nil {
		return f.editErr
	}
	if _, ok := f.messages[id]; !ok {
		return discord.ErrUnknownMessage
	}
	f.messages[id] = content
	return nil
}

func (f *fakeChannel) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "delete:"+id)
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	if _, ok := f.messages[id]; !ok {
		return discord.ErrUnknownMessage
	}
	delete(f.messages, id)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	records map[string]datastore.Notification
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]datastore.Notification{}}
}

func key(day attendance.Day, kind string) string { return day.String() + "/" + kind }

func (s *fakeStore) GetNotification(_ context.Context, day attendance.Day, kind string) (datastore.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.records[key(day, kind)]
	if !ok {
		return datastore.Notification{}, fmt.Errorf("notification %s: %w", key(day, kind), datastore.ErrNotFound)
	}
	return n, nil
}

func (s *fakeStore) PutNotification(_ context.Context, n datastore.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if prev, ok := s.records[key(n.Day, n.Kind)]; ok {
		n.SentAt = prev.SentAt
	}
	s.records[key(n.Day, n.Kind)] = n
	return nil
}

var errBoom = errors.NewStd("boom")
