package cleanup

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakePruner struct {
	cutoff  time.Time
	deleted int64
	err     error
}

func (p *fakePruner) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	p.cutoff = cutoff
	return p.deleted, p.err
}

type fakeObjects struct {
	objects []storage.ObjectInfo
	deleted []string
}

func (f *fakeObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for _, o := range f.objects {
		if strings.HasPrefix(o.Key, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeObjects) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}

func (f *fakeObjects) DeleteObject(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return nil
}

func TestJobRun(t *testing.T) {
	now := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)
	pruner := &fakePruner{deleted: 4}
	objects := &fakeObjects{objects: []storage.ObjectInfo{
		{Key: "memes/2026/08/old.jpg", LastModified: now.AddDate(0, 0, -40)},
		{Key: "memes/2026/09/new.jpg", LastModified: now.AddDate(0, 0, -2)},
		{Key: "other/old.jpg", LastModified: now.AddDate(0, 0, -90)},
	}}

	job := NewJob(pruner, objects, "memes", 30*24*time.Hour, zerolog.Nop())
	job.now = func() time.Time { return now }

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 4, result.SharesDeleted)
	require.Equal(t, 1, result.ObjectsDeleted)
	require.Equal(t, []string{"memes/2026/08/old.jpg"}, objects.deleted)
	require.Equal(t, now.AddDate(0, 0, -30), pruner.cutoff)
}

func TestJobRunEmptyPrefixMatchesArchiver(t *testing.T) {
	now := time.Date(2026, 10, 1, 3, 0, 0, 0, time.UTC)
	objects := &fakeObjects{}
	archiver := storage.NewMediaArchiver(objects, "")
	require.Equal(t, "memes/", archiver.Prefix())

	objects.objects = []storage.ObjectInfo{
		{Key: "memes/2026/08/old.jpg", LastModified: now.AddDate(0, 0, -40)},
	}
	job := NewJob(&fakePruner{}, objects, "", 30*24*time.Hour, zerolog.Nop())
	job.now = func() time.Time { return now }

	result, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.ObjectsDeleted)
	require.Equal(t, []string{"memes/2026/08/old.jpg"}, objects.deleted)
}

func TestJobRunWithoutStorage(t *testing.T) {
	pruner := &fakePruner{err: errors.New("db down")}
	job := NewJob(pruner, nil, "memes", 0, zerolog.Nop())

	_, err := job.Run(context.Background())
	require.ErrorContains(t, err, "db down")
}

func TestNewSchedulerValidatesSpec(t *testing.T) {
	job := NewJob(&fakePruner{}, nil, "memes", time.Hour, zerolog.Nop())

	_, err := NewScheduler("not a schedule", job, zerolog.Nop())
	require.Error(t, err)

	s, err := NewScheduler("@daily", job, zerolog.Nop())
	require.NoError(t, err)
	s.Start()
	s.Stop(context.Background())

	_, err = NewScheduler("0 3 * * *", job, zerolog.Nop())
	require.NoError(t, err)
}
