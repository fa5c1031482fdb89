package media

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// AssetArchiver keeps a copy of optimized assets. Archive failures never
// affect the pipeline outcome.
type AssetArchiver interface {
	Archive(ctx context.Context, asset *OptimizedAsset) (string, error)
}

// Pipeline turns a meme image URL into a platform media id. One instance is
// built per process and shared; it holds no per-invocation state.
type Pipeline struct {
	cfg       PipelineConfig
	optimizer *AssetOptimizer
	uploader  *Uploader
	poller    *Poller
	archiver  AssetArchiver
	log       zerolog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithArchiver stores every optimized asset through a.
func WithArchiver(a AssetArchiver) Option {
	return func(p *Pipeline) {
		p.archiver = a
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Pipeline) {
		p.log = log
	}
}

func withWait(wait waitFunc) Option {
	return func(p *Pipeline) {
		p.poller.wait = wait
	}
}

// NewPipeline creates a pipeline around the optimization provider.
func NewPipeline(provider OptimizationProvider, cfg PipelineConfig, opts ...Option) *Pipeline {
	cfg = cfg.withDefaults()
	p := &Pipeline{
		cfg: cfg,
		log: zerolog.Nop(),
	}
	p.poller = NewPoller(cfg, p.log)
	for _, opt := range opts {
		opt(p)
	}
	p.optimizer = NewAssetOptimizer(provider, cfg.OptimizeOptions)
	p.uploader = NewUploader(cfg, p.log)
	p.poller.log = p.log
	return p
}

// Config returns the effective configuration.
func (p *Pipeline) Config() PipelineConfig {
	return p.cfg
}

// ProcessAndUpload optimizes sourceURL, uploads it through client and waits for
// processing. On failure the returned error is a *Error and no partial upload
// can be resumed.
func (p *Pipeline) ProcessAndUpload(ctx context.Context, sourceURL string, client PlatformClient) (string, error) {
	result, err := p.Process(ctx, MediaUploadRequest{SourceURL: sourceURL, Client: client})
	if err != nil {
		return "", err
	}
	return result.MediaID, nil
}

// Process runs the pipeline and reports how the upload was carried out.
func (p *Pipeline) Process(ctx context.Context, req MediaUploadRequest) (*UploadResult, error) {
	start := time.Now()
	log := p.log.With().Str("source_url", req.SourceURL).Logger()

	asset, err := p.optimizer.Optimize(ctx, req.SourceURL)
	if err != nil {
		log.Warn().Err(err).Msg("media optimization failed")
		return nil, err
	}
	log.Debug().Str("optimized_url", asset.OptimizedURL).Int("bytes", asset.Length).Msg("media optimized")

	if p.archiver != nil {
		if key, err := p.archiver.Archive(ctx, asset); err != nil {
			log.Warn().Err(err).Msg("media archive failed")
		} else {
			log.Debug().Str("key", key).Msg("media archived")
		}
	}

	session, err := p.uploader.Upload(ctx, req.Client, asset)
	if err != nil {
		log.Warn().Err(err).Int("bytes", asset.Length).Msg("media upload failed")
		return nil, err
	}

	attempts, err := p.poller.Poll(ctx, req.Client, session)
	if err != nil {
		log.Warn().Err(err).Str("media_id", session.MediaID).Int("attempts", attempts).Msg("media processing did not succeed")
		return nil, err
	}

	log.Info().
		Str("media_id", session.MediaID).
		Str("strategy", string(session.Strategy)).
		Int("bytes", session.TotalBytes).
		Dur("elapsed", time.Since(start)).
		Msg("media ready")

	return &UploadResult{
		MediaID:      session.MediaID,
		Strategy:     session.Strategy,
		Length:       session.TotalBytes,
		Chunks:       session.SegmentCount(),
		OptimizedURL: asset.OptimizedURL,
		PollAttempts: attempts,
	}, nil
}
