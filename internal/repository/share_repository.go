// backend-go/internal/repository/share_repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
)

var ErrShareNotFound = errors.New("share not found")

type ShareRepository interface {
	Create(ctx context.Context, share *domain.Share) error
	UpdateResult(ctx context.Context, share *domain.Share) error
	Get(ctx context.Context, id string) (*domain.Share, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
