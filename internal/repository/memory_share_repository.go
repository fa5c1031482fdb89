package repository

import (
	"context"
	"sync"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
)

// MemoryShareRepository keeps shares in process memory. It backs the server
// when no database is configured and doubles as a test double.
type MemoryShareRepository struct {
	mu     sync.RWMutex
	shares map[string]domain.Share
}

func NewMemoryShareRepository() *MemoryShareRepository {
	return &MemoryShareRepository{shares: make(map[string]domain.Share)}
}

func (r *MemoryShareRepository) Create(ctx context.Context, share *domain.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shares[share.ID] = *share
	return nil
}

func (r *MemoryShareRepository) UpdateResult(ctx context.Context, share *domain.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.shares[share.ID]; !ok {
		return ErrShareNotFound
	}
	r.shares[share.ID] = *share
	return nil
}

func (r *MemoryShareRepository) Get(ctx context.Context, id string) (*domain.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	share, ok := r.shares[id]
	if !ok {
		return nil, ErrShareNotFound
	}
	return &share, nil
}

func (r *MemoryShareRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, share := range r.shares {
		if share.CreatedAt.Before(cutoff) {
			delete(r.shares, id)
			deleted++
		}
	}
	return deleted, nil
}

var _ ShareRepository = (*MemoryShareRepository)(nil)
