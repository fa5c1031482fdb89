// backend-go/internal/service/share_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/cache"
	"github.com/andresuchdata/walletroast/backend-go/internal/domain"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/andresuchdata/walletroast/backend-go/internal/repository"
	"github.com/andresuchdata/walletroast/backend-go/internal/twitter"
	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const (
	defaultMaxConcurrent = 8
	maxTweetLength       = 280
)

var (
	ErrInvalidRequest = errors.New("invalid share request")
	ErrPostFailed     = errors.New("posting to the social network failed")
)

// SocialClient is a platform client acting for one user.
type SocialClient interface {
	media.PlatformClient
	PostTweet(ctx context.Context, text string, mediaIDs []string) (*twitter.Tweet, error)
}

// ClientFactory builds a SocialClient for the user owning accessToken.
type ClientFactory func(ctx context.Context, accessToken string) SocialClient

// ShareRequest asks for a roast meme to be uploaded and posted.
type ShareRequest struct {
	WalletAddress string
	RoastText     string
	ImageURL      string
	AccessToken   string
}

type ShareService struct {
	pipeline *media.Pipeline
	clients  ClientFactory
	repo     repository.ShareRepository
	cache    cache.ShareCache
	sem      *semaphore.Weighted
	now      func() time.Time
}

func NewShareService(pipeline *media.Pipeline, clients ClientFactory, repo repository.ShareRepository, cacheImpl cache.ShareCache, maxConcurrent int) *ShareService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopShareCache()
	}
	if repo == nil {
		repo = repository.NewMemoryShareRepository()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &ShareService{
		pipeline: pipeline,
		clients:  clients,
		repo:     repo,
		cache:    cacheImpl,
		sem:      semaphore.NewWeighted(int64(maxConcurrent)),
		now:      time.Now,
	}
}

// UploadMedia runs the media pipeline only and returns its result.
func (s *ShareService) UploadMedia(ctx context.Context, imageURL, accessToken string) (*media.UploadResult, error) {
	if strings.TrimSpace(imageURL) == "" || strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: image url and access token are required", ErrInvalidRequest)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("could not acquire upload slot: %w", err)
	}
	defer s.sem.Release(1)

	client := s.clients(ctx, accessToken)
	return s.pipeline.Process(ctx, media.MediaUploadRequest{SourceURL: imageURL, Client: client})
}

// Share uploads the roast meme and posts it with the roast text. The returned
// share reflects the final state even when an error is returned.
func (s *ShareService) Share(ctx context.Context, req ShareRequest) (*domain.Share, error) {
	if err := validateShareRequest(req); err != nil {
		return nil, err
	}

	now := s.now()
	share := &domain.Share{
		ID:             uuid.NewString(),
		WalletAddress:  strings.TrimSpace(req.WalletAddress),
		RoastText:      strings.TrimSpace(req.RoastText),
		SourceImageURL: strings.TrimSpace(req.ImageURL),
		Status:         domain.ShareStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, share); err != nil {
		return nil, fmt.Errorf("failed to record share: %w", err)
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.fail(ctx, share, "cancelled", err)
	}
	defer s.sem.Release(1)

	client := s.clients(ctx, req.AccessToken)
	result, err := s.pipeline.Process(ctx, media.MediaUploadRequest{SourceURL: share.SourceImageURL, Client: client})
	if err != nil {
		kind, _ := media.KindOf(err)
		if media.IsTransient(err) {
			share.Status = domain.ShareStatusProcessing
			share.ErrorKind = string(kind)
			share.ErrorMessage = err.Error()
			s.save(ctx, share)
			return share, err
		}
		return s.fail(ctx, share, string(kind), err)
	}

	share.MediaID = result.MediaID
	share.OptimizedURL = result.OptimizedURL
	share.UploadStrategy = string(result.Strategy)
	share.Status = domain.ShareStatusUploaded
	s.save(ctx, share)

	tweet, err := client.PostTweet(ctx, share.RoastText, []string{result.MediaID})
	if err != nil {
		return s.fail(ctx, share, "post_failed", fmt.Errorf("%w: %v", ErrPostFailed, err))
	}

	share.TweetID = tweet.ID
	share.Status = domain.ShareStatusPosted
	s.save(ctx, share)

	log.Info().
		Str("share_id", share.ID).
		Str("media_id", share.MediaID).
		Str("tweet_id", share.TweetID).
		Msg("roast shared")

	return share, nil
}

// GetShare returns a share by id, served from cache when possible.
func (s *ShareService) GetShare(ctx context.Context, id string) (*domain.Share, error) {
	if share, ok, err := s.cache.GetShare(ctx, id); err == nil && ok {
		return share, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("share: cache get failed")
	}

	share, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetShare(ctx, share); err != nil {
		log.Warn().Err(err).Msg("share: cache set failed")
	}

	return share, nil
}

// PruneOlderThan deletes share records created before cutoff.
func (s *ShareService) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			log.Warn().Err(err).Msg("share: cache invalidate failed")
		}
	}
	return deleted, nil
}

func (s *ShareService) fail(ctx context.Context, share *domain.Share, kind string, cause error) (*domain.Share, error) {
	share.Status = domain.ShareStatusFailed
	share.ErrorKind = kind
	share.ErrorMessage = cause.Error()
	s.save(ctx, share)
	return share, cause
}

// save persists the share; the upload outcome stands even if recording it fails.
func (s *ShareService) save(ctx context.Context, share *domain.Share) {
	share.UpdatedAt = s.now()
	// The request context may already be cancelled; the record should still land.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repo.UpdateResult(saveCtx, share); err != nil {
		log.Error().Err(err).Str("share_id", share.ID).Msg("share: failed to update record")
	}
	if err := s.cache.SetShare(saveCtx, share); err != nil {
		log.Warn().Err(err).Str("share_id", share.ID).Msg("share: cache set failed")
	}
}

func validateShareRequest(req ShareRequest) error {
	wallet := strings.TrimSpace(req.WalletAddress)
	switch {
	case wallet == "":
		return fmt.Errorf("%w: wallet address is required", ErrInvalidRequest)
	case !isSolanaAddress(wallet):
		return fmt.Errorf("%w: %q is not a solana address", ErrInvalidRequest, wallet)
	case strings.TrimSpace(req.ImageURL) == "":
		return fmt.Errorf("%w: image url is required", ErrInvalidRequest)
	case strings.TrimSpace(req.AccessToken) == "":
		return fmt.Errorf("%w: access token is required", ErrInvalidRequest)
	case len([]rune(strings.TrimSpace(req.RoastText))) > maxTweetLength:
		return fmt.Errorf("%w: roast text exceeds %d characters", ErrInvalidRequest, maxTweetLength)
	}
	return nil
}

// isSolanaAddress reports whether s is a base58 encoded 32-byte public key.
func isSolanaAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	key, err := base58.Decode(s)
	return err == nil && len(key) == 32
}
