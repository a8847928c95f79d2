package state

import (
	"context"
	"errors"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// ErrNotFound is returned when no chat state exists for a user.
var ErrNotFound = errors.New("chat state not found")

// MemoryStorage keeps chat state in process memory with a TTL matching the
// session lifetime. Losing it only forces the user through /start again.
type MemoryStorage struct {
	cache *gocache.Cache
}

func NewMemoryStorage(ttl time.Duration) *MemoryStorage {
	return &MemoryStorage{
		cache: gocache.New(ttl, ttl/2),
	}
}

func (s *MemoryStorage) Get(_ context.Context, userID int64) (*ChatState, error) {
	value, found := s.cache.Get(strconv.FormatInt(userID, 10))
	if !found {
		return nil, ErrNotFound
	}
	return value.(*ChatState), nil
}

func (s *MemoryStorage) Set(_ context.Context, chat *ChatState) error {
	s.cache.SetDefault(strconv.FormatInt(chat.UserID, 10), chat)
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, userID int64) error {
	s.cache.Delete(strconv.FormatInt(userID, 10))
	return nil
}
