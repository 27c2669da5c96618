// Package images resolves character avatar references to base64 data URIs.
package images

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ersonp/lore-chronicle/internal/domain/ports"
	"github.com/ersonp/lore-chronicle/internal/infrastructure/config"
)

// readTimeout bounds a shared read, which no longer follows any single
// caller's context.
const readTimeout = 30 * time.Second

// Source reads the raw bytes behind an avatar reference.
type Source interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// Loader implements ports.ImageLoader on top of a Source. Encoded results
// are cached per reference and concurrent requests for the same reference
// share a single read.
type Loader struct {
	source      Source
	readTimeout time.Duration

	cache   map[string]string
	cacheMu sync.RWMutex
	group   singleflight.Group
}

var (
	_ ports.ImageLoader = (*Loader)(nil)
	_ ports.AvatarCache = (*Loader)(nil)
)

// NewLoader wraps source with caching and request coalescing.
func NewLoader(source Source) *Loader {
	return &Loader{
		source:      source,
		readTimeout: readTimeout,
		cache:       make(map[string]string),
	}
}

// New builds the loader selected by cfg.
func New(ctx context.Context, cfg config.ImagesConfig) (*Loader, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "filesystem":
		return NewLoader(NewFileSource(cfg.Root)), nil
	case "s3":
		src, err := NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewLoader(src), nil
	default:
		return nil, fmt.Errorf("unknown images provider %q", cfg.Provider)
	}
}

// GetImageData returns ref as a data URI. Empty references yield "" and
// references that already are data URIs are returned unchanged.
func (l *Loader) GetImageData(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", nil
	}
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}

	l.cacheMu.RLock()
	if cached, ok := l.cache[ref]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	// The read is shared, so cancelling one caller must not fail the others.
	readCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(ref, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[ref]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		rctx, cancel := context.WithTimeout(readCtx, l.readTimeout)
		defer cancel()

		data, err := l.source.Read(rctx, ref)
		if err != nil {
			return "", fmt.Errorf("reading avatar %q: %w", ref, err)
		}
		uri := dataURI(ref, data)

		l.cacheMu.Lock()
		l.cache[ref] = uri
		l.cacheMu.Unlock()

		return uri, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Forget drops a cached reference, e.g. after an avatar was replaced.
func (l *Loader) Forget(ref string) {
	l.cacheMu.Lock()
	delete(l.cache, ref)
	l.cacheMu.Unlock()
}

func dataURI(ref string, data []byte) string {
	return mimePrefix(ref) + base64.StdEncoding.EncodeToString(data)
}

func mimePrefix(ref string) string {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(ref)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	// Drop parameters such as "; charset=utf-8".
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return fmt.Sprintf("data:%s;base64,", mimeType)
}
