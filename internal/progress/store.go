package progress

import (
	"context"
	"errors"
	"sync"
)

//go:generate mockgen -source=$GOFILE -destination=store_mocks_test.go -package=progress_test

var (
	ErrAthleteNotFound = errors.New("athlete not found")
	ErrVersionConflict = errors.New("progress version conflict")
)

// Store persists whole AthleteProgress documents.
//
// Save is a compare-and-swap on Version: it succeeds only when the stored version still
// equals p.Version (0 means "not stored yet"), and bumps p.Version on success.
type Store interface {
	Load(ctx context.Context, athleteID string) (*AthleteProgress, error)
	Save(ctx context.Context, p *AthleteProgress) error
}

type MemStore struct {
	mutex sync.RWMutex
	docs  map[string]*AthleteProgress
}

func NewMemStore() *MemStore {
	return &MemStore{
		docs: make(map[string]*AthleteProgress),
	}
}

func (s *MemStore) Load(_ context.Context, athleteID string) (*AthleteProgress, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	p, ok := s.docs[athleteID]
	if !ok {
		return nil, ErrAthleteNotFound
	}
	return p.Clone(), nil
}

func (s *MemStore) Save(_ context.Context, p *AthleteProgress) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var stored int64
	if current, ok := s.docs[p.AthleteID]; ok {
		stored = current.Version
	}
	if stored != p.Version {
		return ErrVersionConflict
	}

	p.Version++
	s.docs[p.AthleteID] = p.Clone()
	return nil
}
