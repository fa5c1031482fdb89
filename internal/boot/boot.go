// Package boot wires the media pipeline and its collaborators from configuration.
package boot

import (
	"context"
	"fmt"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/andresuchdata/walletroast/backend-go/internal/optimizer"
	"github.com/andresuchdata/walletroast/backend-go/internal/service"
	"github.com/andresuchdata/walletroast/backend-go/internal/storage"
	"github.com/andresuchdata/walletroast/backend-go/internal/twitter"
	"github.com/andresuchdata/walletroast/backend-go/pkg/logger"
)

// ProvideObjectStorage returns nil when archiving is disabled.
func ProvideObjectStorage(cfg config.StorageConfig) (storage.ObjectStorage, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := storage.NewMinioClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// ProvidePipeline builds the single media pipeline instance for the process.
func ProvidePipeline(cfg *config.Config, objects storage.ObjectStorage) (*media.Pipeline, error) {
	provider, err := optimizer.NewKrakenClient(cfg.Optimizer, nil)
	if err != nil {
		return nil, fmt.Errorf("optimizer: %w", err)
	}

	opts := []media.Option{media.WithLogger(logger.With("media"))}
	if objects != nil {
		opts = append(opts, media.WithArchiver(storage.NewMediaArchiver(objects, cfg.Storage.Prefix)))
	}

	return media.NewPipeline(provider, media.ConfigFromSettings(cfg.Media), opts...), nil
}

// ProvideClientFactory returns a factory creating per-user platform clients.
func ProvideClientFactory(cfg config.TwitterConfig) (service.ClientFactory, error) {
	client, err := twitter.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, accessToken string) service.SocialClient {
		return client.WithAccessToken(ctx, accessToken)
	}, nil
}
