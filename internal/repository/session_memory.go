// Package repository holds session storage. Sessions live only in process
// memory with an idle TTL: the service deliberately keeps no durable or
// queryable session history, the blob sink is the only durable output.
package repository

import (
	"context"
	"time"

	"github.com/opmgt/beergame-coach/internal/entity"
	gocache "github.com/patrickmn/go-cache"
)

// SessionRepository is the session store contract used by the coach usecase.
type SessionRepository interface {
	Save(ctx context.Context, session *entity.Session) error
	Get(ctx context.Context, id string) (*entity.Session, error)
	Delete(ctx context.Context, id string) error
}

// SessionMemory stores sessions in an expiring in-memory cache. Each Save
// refreshes the idle TTL.
type SessionMemory struct {
	cache *gocache.Cache
}

func NewSessionMemory(ttl time.Duration) *SessionMemory {
	return &SessionMemory{
		cache: gocache.New(ttl, ttl/2),
	}
}

func (r *SessionMemory) Save(_ context.Context, session *entity.Session) error {
	r.cache.SetDefault(session.ID, session)
	return nil
}

func (r *SessionMemory) Get(_ context.Context, id string) (*entity.Session, error) {
	value, ok := r.cache.Get(id)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}
	return value.(*entity.Session), nil
}

func (r *SessionMemory) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}
