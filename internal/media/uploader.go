package media

import (
	"context"

	"github.com/rs/zerolog"
)

// SelectStrategy picks the upload protocol. Ties go to chunked.
func SelectStrategy(length, threshold int) UploadStrategy {
	if length >= threshold {
		return StrategyChunked
	}
	return StrategySimple
}

// Uploader drives either the simple upload call or the INIT/APPEND/FINALIZE
// protocol against a PlatformClient.
type Uploader struct {
	cfg PipelineConfig
	log zerolog.Logger
}

// NewUploader creates an uploader with cfg's threshold and chunk size.
func NewUploader(cfg PipelineConfig, log zerolog.Logger) *Uploader {
	return &Uploader{cfg: cfg.withDefaults(), log: log}
}

// Upload sends asset to client and returns the finalized session. Any failed
// call aborts the session and returns an UploadFailed error.
func (u *Uploader) Upload(ctx context.Context, client PlatformClient, asset *OptimizedAsset) (*UploadSession, error) {
	if client == nil {
		return nil, uploadFailed("no platform client provided", nil)
	}
	if asset == nil || asset.Length == 0 {
		return nil, uploadFailed("nothing to upload", nil)
	}

	strategy := SelectStrategy(asset.Length, u.cfg.ChunkedThreshold)
	session := NewUploadSession(asset.Length, u.cfg.ChunkSize, strategy)

	var err error
	if strategy == StrategyChunked {
		err = u.uploadChunked(ctx, client, session, asset.Payload)
	} else {
		err = u.uploadSimple(ctx, client, session, asset.Payload)
	}
	if err != nil {
		session.Abort()
		return nil, err
	}
	return session, nil
}

func (u *Uploader) uploadSimple(ctx context.Context, client PlatformClient, session *UploadSession, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return uploadFailed("upload cancelled", err)
	}
	mediaID, err := client.SimpleUpload(ctx, payload)
	if err != nil {
		return uploadFailed("simple upload failed", err)
	}
	if err := session.Finalized(mediaID); err != nil {
		return uploadFailed("simple upload rejected", err)
	}
	u.log.Debug().Str("media_id", mediaID).Int("bytes", session.TotalBytes).Msg("simple upload complete")
	return nil
}

func (u *Uploader) uploadChunked(ctx context.Context, client PlatformClient, session *UploadSession, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return uploadFailed("upload cancelled", err)
	}
	mediaID, err := client.InitUpload(ctx, session.TotalBytes, u.cfg.MediaCategory)
	if err != nil {
		return uploadFailed("INIT failed", err)
	}
	if err := session.Initialized(mediaID); err != nil {
		return uploadFailed("INIT rejected", err)
	}

	segments := session.SegmentCount()
	for i := 0; i < segments; i++ {
		if err := ctx.Err(); err != nil {
			return uploadFailed("upload cancelled", err)
		}
		start, end := session.SegmentBounds(i)
		if err := client.AppendChunk(ctx, mediaID, i, payload[start:end]); err != nil {
			return uploadFailed("APPEND failed", err)
		}
		if err := session.Appended(i, end-start); err != nil {
			return uploadFailed("APPEND rejected", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return uploadFailed("upload cancelled", err)
	}
	if err := client.FinalizeUpload(ctx, mediaID); err != nil {
		return uploadFailed("FINALIZE failed", err)
	}
	if err := session.Finalized(mediaID); err != nil {
		return uploadFailed("FINALIZE rejected", err)
	}

	u.log.Debug().
		Str("media_id", mediaID).
		Int("bytes", session.TotalBytes).
		Int("segments", segments).
		Msg("chunked upload complete")
	return nil
}
