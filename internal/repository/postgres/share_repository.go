// backend-go/internal/repository/postgres/share_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
)

type shareRepository struct {
	db *DB
}

func NewShareRepository(db *DB) repository.ShareRepository {
	return &shareRepository{db: db}
}

func (r *shareRepository) Create(ctx context.Context, share *domain.Share) error {
	query := `
		INSERT INTO shares (
			id, wallet_address, roast_text, source_image_url, status, created_at, updated_at
		) VALUES (:id, :wallet_address, :roast_text, :source_image_url, :status, :created_at, :updated_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, share); err != nil {
		return fmt.Errorf("failed to insert share: %w", err)
	}
	return nil
}

func (r *shareRepository) UpdateResult(ctx context.Context, share *domain.Share) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE shares SET
				optimized_url = $2,
				media_id = $3,
				tweet_id = $4,
				upload_strategy = $5,
				status = $6,
				error_kind = $7,
				error_message = $8,
				updated_at = $9
			WHERE id = $1
		`
		res, err := tx.ExecContext(ctx, query,
			share.ID,
			share.OptimizedURL,
			share.MediaID,
			share.TweetID,
			share.UploadStrategy,
			share.Status,
			share.ErrorKind,
			share.ErrorMessage,
			share.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to update share: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}
		if affected == 0 {
			return repository.ErrShareNotFound
		}
		return nil
	})
}

func (r *shareRepository) Get(ctx context.Context, id string) (*domain.Share, error) {
	var share domain.Share
	query := `
		SELECT id, wallet_address, roast_text, source_image_url, optimized_url, media_id,
			tweet_id, upload_strategy, status, error_kind, error_message, created_at, updated_at
		FROM shares
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &share, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrShareNotFound
		}
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return &share, nil
}

func (r *shareRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shares WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete shares: %w", err)
	}
	return res.RowsAffected()
}
