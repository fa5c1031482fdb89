package media

import (
	"context"
	"time"
)

// OptimizationProvider is the external image optimization service.
type OptimizationProvider interface {
	// Optimize submits url with provider-specific options and returns the
	// public URL of the optimized asset.
	Optimize(ctx context.Context, url string, options OptimizeOptions) (string, error)

	// FetchBytes downloads the raw bytes behind url.
	FetchBytes(ctx context.Context, url string) ([]byte, error)
}

// PlatformClient is the capability used to push media to the social platform.
// Implementations must be safe to use from a single goroutine at a time;
// the pipeline never calls one concurrently for the same invocation.
type PlatformClient interface {
	InitUpload(ctx context.Context, totalBytes int, mediaCategory string) (string, error)
	AppendChunk(ctx context.Context, mediaID string, segmentIndex int, chunk []byte) error
	FinalizeUpload(ctx context.Context, mediaID string) error
	SimpleUpload(ctx context.Context, payload []byte) (string, error)
	GetProcessingStatus(ctx context.Context, mediaID string) (*ProcessingStatus, error)
}

// OptimizeOptions are passed through to the provider unchanged.
type OptimizeOptions map[string]interface{}

// DefaultOptimizeOptions returns encoding options suited to social card images.
func DefaultOptimizeOptions() OptimizeOptions {
	return OptimizeOptions{
		"lossy":   true,
		"quality": 80,
		"resize": map[string]interface{}{
			"width":    1200,
			"height":   675,
			"strategy": "fit",
		},
		"convert": map[string]interface{}{
			"format":     "jpeg",
			"background": "#ffffff",
		},
	}
}

// MediaUploadRequest is the input of one pipeline invocation.
type MediaUploadRequest struct {
	SourceURL string
	Client    PlatformClient
}

// OptimizedAsset is owned by one invocation and dropped once uploaded.
type OptimizedAsset struct {
	SourceURL    string
	OptimizedURL string
	Payload      []byte
	Length       int
}

// UploadStrategy tags which upload protocol was used.
type UploadStrategy string

const (
	StrategySimple  UploadStrategy = "simple"
	StrategyChunked UploadStrategy = "chunked"
)

// ProcessingState is the server-side processing job state.
type ProcessingState string

const (
	ProcessingSucceeded  ProcessingState = "succeeded"
	ProcessingInProgress ProcessingState = "in_progress"
	ProcessingFailed     ProcessingState = "failed"
)

// ProcessingStatus is reported by the platform; the poller never mutates it.
type ProcessingStatus struct {
	State ProcessingState
	// ErrorDetail is set when State is ProcessingFailed.
	ErrorDetail string
	// CheckAfter is the platform's hint for the next query, zero if absent.
	CheckAfter time.Duration
}

// UploadResult describes a completed pipeline run.
type UploadResult struct {
	MediaID      string
	Strategy     UploadStrategy
	Length       int
	Chunks       int
	OptimizedURL string
	PollAttempts int
}
