package database

import (
	"context"
	"sort"
	"strings"
	"sync"

	"entrypass/entity"
	"entrypass/lib/apperr"
)

// Memory keeps passes and staff users in process memory. It backs the local
// environment and tests; nothing survives a restart.
type Memory struct {
	mu     sync.RWMutex
	passes map[int64]*entity.Pass
	lastId int64
	users  map[int64]*entity.User
}

func NewMemory() *Memory {
	return &Memory{
		passes: make(map[int64]*entity.Pass),
		users:  make(map[int64]*entity.User),
	}
}

func clonePass(p *entity.Pass) *entity.Pass {
	c := *p
	if p.CheckedInAt != nil {
		t := *p.CheckedInAt
		c.CheckedInAt = &t
	}
	if p.OwnerId != nil {
		id := *p.OwnerId
		c.OwnerId = &id
	}
	return &c
}

func (m *Memory) CreatePass(_ context.Context, pass *entity.Pass) (*entity.Pass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastId++
	stored := clonePass(pass)
	stored.Id = m.lastId
	m.passes[stored.Id] = stored
	return clonePass(stored), nil
}

func (m *Memory) GetPass(_ context.Context, id int64) (*entity.Pass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pass, ok := m.passes[id]
	if !ok {
		return nil, apperr.NotFound("pass %d", id)
	}
	return clonePass(pass), nil
}

// UpdatePassStatus checks the guard and writes under one lock, which is the
// in-memory equivalent of a conditional UPDATE.
func (m *Memory) UpdatePassStatus(_ context.Context, upd entity.StatusUpdate) (*entity.Pass, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pass, ok := m.passes[upd.Id]
	if !ok {
		return nil, false, nil
	}
	if upd.Expect != nil && pass.Status != *upd.Expect {
		return nil, false, nil
	}
	pass.Status = upd.Status
	pass.CheckedInAt = nil
	if upd.CheckedInAt != nil {
		t := *upd.CheckedInAt
		pass.CheckedInAt = &t
	}
	pass.RecordUpdatedAt = upd.UpdatedAt
	return clonePass(pass), true, nil
}

// ListPasses matches search case-insensitively against national id, name and
// surname; newest passes come first.
func (m *Memory) ListPasses(_ context.Context, search string) ([]*entity.Pass, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(search)
	passes := make([]*entity.Pass, 0, len(m.passes))
	for _, pass := range m.passes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(pass.NationalId), needle) &&
			!strings.Contains(strings.ToLower(pass.Name), needle) &&
			!strings.Contains(strings.ToLower(pass.Surname), needle) {
			continue
		}
		passes = append(passes, clonePass(pass))
	}
	sort.Slice(passes, func(i, j int) bool {
		if passes[i].CreatedAt.Equal(passes[j].CreatedAt) {
			return passes[i].Id > passes[j].Id
		}
		return passes[i].CreatedAt.After(passes[j].CreatedAt)
	})
	return passes, nil
}

func (m *Memory) SaveUser(_ context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.users {
		if existing.Username == user.Username && id != user.Id {
			delete(m.users, id)
		}
	}
	u := *user
	m.users[u.Id] = &u
	return nil
}

func (m *Memory) UserByUsername(_ context.Context, username string) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Username == username {
			u := *user
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user %s", username)
}

func (m *Memory) UserById(_ context.Context, id int64) (*entity.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user %d", id)
	}
	u := *user
	return &u, nil
}
