package storage

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/andresuchdata/walletroast/backend-go/internal/media"
	"github.com/google/uuid"
)

// DefaultPrefix is used when no STORAGE_PREFIX is configured.
const DefaultPrefix = "memes"

// NormalizePrefix trims slashes and falls back to DefaultPrefix.
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return DefaultPrefix
	}
	return prefix
}

// MediaArchiver keeps a copy of every optimized meme in object storage.
type MediaArchiver struct {
	store  ObjectStorage
	prefix string
	now    func() time.Time
}

// NewMediaArchiver creates an archiver writing below prefix.
func NewMediaArchiver(store ObjectStorage, prefix string) *MediaArchiver {
	return &MediaArchiver{store: store, prefix: NormalizePrefix(prefix), now: time.Now}
}

// Archive uploads the optimized bytes and returns the object key.
func (a *MediaArchiver) Archive(ctx context.Context, asset *media.OptimizedAsset) (string, error) {
	if asset == nil || len(asset.Payload) == 0 {
		return "", fmt.Errorf("nothing to archive")
	}
	contentType := http.DetectContentType(asset.Payload)
	key := a.keyFor(contentType)
	if err := a.store.UploadObject(ctx, key, asset.Payload, contentType); err != nil {
		return "", err
	}
	return key, nil
}

// Prefix is the key prefix all archived objects live under.
func (a *MediaArchiver) Prefix() string {
	return a.prefix + "/"
}

func (a *MediaArchiver) keyFor(contentType string) string {
	ext := ".bin"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/png":
		ext = ".png"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}
	now := a.now().UTC()
	return path.Join(a.prefix, now.Format("2006"), now.Format("01"), uuid.NewString()+ext)
}

var _ media.AssetArchiver = (*MediaArchiver)(nil)
