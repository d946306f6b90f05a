package memory

import (
	"context"
	"sync"
	"time"

	"chathub/internal/entity"
	"chathub/internal/repository/contract"

	"github.com/google/uuid"
)

type UserRepository struct {
	mu    sync.RWMutex
	byId  map[uuid.UUID]*entity.User
	byTag map[string]uuid.UUID
}

func NewUserRepository() contract.UserRepository {
	return &UserRepository{
		byId:  make(map[uuid.UUID]*entity.User),
		byTag: make(map[string]uuid.UUID),
	}
}

func (r *UserRepository) Seed(u *entity.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.byId[u.Id] = &cp
	r.byTag[u.Username] = u.Id
}

func (r *UserRepository) GetById(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byId[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTag[username]
	if !ok {
		return nil, nil
	}
	cp := *r.byId[id]
	return &cp, nil
}

func (r *UserRepository) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byId[id]
	if !ok {
		return nil
	}
	u.IsOnline = online
	if !online {
		now := time.Now()
		u.LastSeenAt = &now
	}
	return nil
}
