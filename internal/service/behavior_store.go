package service

import (
	"sync"
	"time"

	"launchpad_backend/internal/model"
)

// BehaviorStore 用户行为画像存储，按 userId 取用
// Pluggable so the engine carries no module-level state; the default is an
// in-process map, a persistent implementation can be swapped in later.
type BehaviorStore interface {
	// Get returns the stored pattern or nil when none exists yet.
	Get(userID uint) *model.BehaviorPattern
	// GetOrCreate lazily creates the pattern on first observation.
	GetOrCreate(userID uint, now time.Time) *model.BehaviorPattern
	Put(pattern *model.BehaviorPattern)
}

type memoryBehaviorStore struct {
	mu       sync.RWMutex
	patterns map[uint]*model.BehaviorPattern
}

func NewMemoryBehaviorStore() BehaviorStore {
	return &memoryBehaviorStore{patterns: make(map[uint]*model.BehaviorPattern)}
}

func (s *memoryBehaviorStore) Get(userID uint) *model.BehaviorPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patterns[userID]
}

func (s *memoryBehaviorStore) GetOrCreate(userID uint, now time.Time) *model.BehaviorPattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.patterns[userID]; ok {
		return p
	}
	p := model.NewBehaviorPattern(userID, now)
	s.patterns[userID] = p
	return p
}

func (s *memoryBehaviorStore) Put(pattern *model.BehaviorPattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patterns[pattern.UserID] = pattern
}
