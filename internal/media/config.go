package media

import (
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/config"
)

const (
	MiB = 1024 * 1024

	DefaultChunkedThreshold = 5 * MiB
	DefaultChunkSize        = 1 * MiB
	DefaultPollInterval     = time.Second
	DefaultMaxPollAttempts  = 5
	DefaultMediaCategory    = "tweet_image"
)

// PipelineConfig holds the tunables of a Pipeline instance
type PipelineConfig struct {
	ChunkedThreshold int           // Payloads at or above this size use the chunked protocol
	ChunkSize        int           // Size of each APPEND segment
	PollInterval     time.Duration // Wait between status queries when no hint is given
	MaxPollAttempts  int           // Total status queries before giving up
	MediaCategory    string        // Declared on INIT
	OptimizeOptions  OptimizeOptions
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkedThreshold: DefaultChunkedThreshold,
		ChunkSize:        DefaultChunkSize,
		PollInterval:     DefaultPollInterval,
		MaxPollAttempts:  DefaultMaxPollAttempts,
		MediaCategory:    DefaultMediaCategory,
		OptimizeOptions:  DefaultOptimizeOptions(),
	}
}

// withDefaults fills zero values so a partially populated config is usable.
func (c PipelineConfig) withDefaults() PipelineConfig {
	def := DefaultPipelineConfig()
	if c.ChunkedThreshold <= 0 {
		c.ChunkedThreshold = def.ChunkedThreshold
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.MaxPollAttempts <= 0 {
		c.MaxPollAttempts = def.MaxPollAttempts
	}
	if c.MediaCategory == "" {
		c.MediaCategory = def.MediaCategory
	}
	if c.OptimizeOptions == nil {
		c.OptimizeOptions = def.OptimizeOptions
	}
	return c
}

// ConfigFromSettings maps the MEDIA_* settings onto a PipelineConfig.
func ConfigFromSettings(m config.MediaConfig) PipelineConfig {
	cfg := PipelineConfig{
		ChunkedThreshold: m.ChunkedThresholdBytes,
		ChunkSize:        m.ChunkSizeBytes,
		PollInterval:     m.PollInterval(),
		MaxPollAttempts:  m.MaxPollAttempts,
		MediaCategory:    m.MediaCategory,
	}
	return cfg.withDefaults()
}
