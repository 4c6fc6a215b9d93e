package message

import (
	"context"
	"sort"
	"sync"
	"time"

	"RoomRelay/module/chat/model"
	"RoomRelay/tools/errs"
	"RoomRelay/tools/ids"
)

// memStore is an in-memory Store with the same conflict semantics as the
// Mongo one. Used by tests and by local runs without a database.
type memStore struct {
	mu    sync.RWMutex
	msgs  map[string]*model.Message
	rooms map[string]*model.Room // name -> room
}

func NewMemStore() Store {
	return &memStore{
		msgs:  make(map[string]*model.Message),
		rooms: make(map[string]*model.Room),
	}
}

func (s *memStore) InsertMessage(ctx context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.msgs[m.ID]; ok {
		return errs.ErrDuplicate.WithDetail(m.ID)
	}
	cp := *m
	s.msgs[m.ID] = &cp
	return nil
}

func (s *memStore) FindMessage(ctx context.Context, id string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.msgs[id]
	if !ok {
		return nil, errs.ErrNotFound.WithDetail(id)
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) History(ctx context.Context, roomID string, limit int) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []*model.Message
	for _, m := range s.msgs {
		if m.RoomID == roomID {
			cp := *m
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (s *memStore) EnsureRoom(ctx context.Context, name string) (*model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[name]; ok {
		cp := *r
		return &cp, nil
	}
	r := &model.Room{
		ID:        ids.GenerateString(),
		Name:      name,
		IsPublic:  true,
		CreatedAt: time.Now().UTC(),
	}
	s.rooms[name] = r
	cp := *r
	return &cp, nil
}
