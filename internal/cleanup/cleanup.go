package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/storage"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// SharePruner deletes share records created before a cutoff.
type SharePruner interface {
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Result summarises one cleanup pass.
type Result struct {
	SharesDeleted  int64
	ObjectsDeleted int
}

// Job removes expired share records and archived memes.
type Job struct {
	shares    SharePruner
	objects   storage.ObjectStorage
	prefix    string
	retention time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewJob creates a cleanup job. objects may be nil when archiving is disabled.
func NewJob(shares SharePruner, objects storage.ObjectStorage, prefix string, retention time.Duration, log zerolog.Logger) *Job {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Job{
		shares:    shares,
		objects:   objects,
		prefix:    storage.NormalizePrefix(prefix) + "/",
		retention: retention,
		log:       log,
		now:       time.Now,
	}
}

// Run performs one cleanup pass.
func (j *Job) Run(ctx context.Context) (Result, error) {
	var result Result
	cutoff := j.now().Add(-j.retention)

	deleted, err := j.shares.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("prune shares: %w", err)
	}
	result.SharesDeleted = deleted

	if j.objects != nil {
		objects, err := j.objects.ListObjects(ctx, j.prefix)
		if err != nil {
			return result, fmt.Errorf("list archived media: %w", err)
		}
		for _, object := range objects {
			if object.LastModified.IsZero() || !object.LastModified.Before(cutoff) {
				continue
			}
			if err := j.objects.DeleteObject(ctx, object.Key); err != nil {
				return result, err
			}
			result.ObjectsDeleted++
		}
	}

	j.log.Info().
		Int64("shares_deleted", result.SharesDeleted).
		Int("objects_deleted", result.ObjectsDeleted).
		Time("cutoff", cutoff).
		Msg("cleanup finished")
	return result, nil
}

// Scheduler runs a Job on a cron schedule.
type Scheduler struct {
	cron *cron.Cron
	job  *Job
	log  zerolog.Logger
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewScheduler registers job under spec (standard five-field cron or a descriptor).
func NewScheduler(spec string, job *Job, log zerolog.Logger) (*Scheduler, error) {
	c := cron.New(cron.WithParser(cronParser))
	s := &Scheduler{cron: c, job: job, log: log}
	if _, err := c.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if _, err := s.job.Run(ctx); err != nil {
		s.log.Error().Err(err).Msg("cleanup failed")
	}
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
