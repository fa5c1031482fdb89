package media

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// waitFunc blocks for d or until ctx is done.
type waitFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Poller waits for server-side processing of an uploaded asset.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	wait        waitFunc
	log         zerolog.Logger
}

// NewPoller creates a poller using cfg's interval and attempt budget.
func NewPoller(cfg PipelineConfig, log zerolog.Logger) *Poller {
	cfg = cfg.withDefaults()
	return &Poller{
		interval:    cfg.PollInterval,
		maxAttempts: cfg.MaxPollAttempts,
		wait:        sleepContext,
		log:         log,
	}
}

// Poll queries the processing status of session's media until it reaches a
// terminal state or the attempt budget runs out. It returns the number of
// status queries made.
func (p *Poller) Poll(ctx context.Context, client PlatformClient, session *UploadSession) (int, error) {
	if session == nil || !session.ReadyForPolling() {
		return 0, processingFailed("upload not finalized", ErrInvalidTransition)
	}
	mediaID := session.MediaID

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		status, err := client.GetProcessingStatus(ctx, mediaID)
		if err != nil {
			if attempt > 1 && ctx.Err() != nil {
				return attempt, processingTimeout(fmt.Sprintf("stopped waiting for media %s after %d checks", mediaID, attempt-1), err)
			}
			return attempt, processingFailed("status query failed", err)
		}
		if status == nil {
			return attempt, processingFailed("empty processing status", nil)
		}

		switch status.State {
		case ProcessingSucceeded:
			p.log.Debug().Str("media_id", mediaID).Int("attempt", attempt).Msg("media processing succeeded")
			return attempt, nil
		case ProcessingFailed:
			detail := status.ErrorDetail
			if detail == "" {
				detail = "platform reported failure without detail"
			}
			return attempt, processingFailed(detail, nil)
		case ProcessingInProgress:
		default:
			return attempt, processingFailed(fmt.Sprintf("unknown processing state %q", status.State), nil)
		}

		if attempt == p.maxAttempts {
			break
		}

		delay := p.interval
		if status.CheckAfter > 0 {
			delay = status.CheckAfter
		}
		p.log.Debug().
			Str("media_id", mediaID).
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("media still processing")
		// The platform last reported in_progress, so an abandoned wait is
		// a timeout from the caller's point of view.
		if err := p.wait(ctx, delay); err != nil {
			return attempt, processingTimeout(fmt.Sprintf("stopped waiting for media %s after %d checks", mediaID, attempt), err)
		}
	}

	return p.maxAttempts, processingTimeout(fmt.Sprintf("media %s still processing after %d checks", mediaID, p.maxAttempts), nil)
}
