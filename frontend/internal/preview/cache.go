// Package preview holds the catalog snapshot the UI renders and the single
// decoded image shown in the preview pane.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/degixdaw/filebrowser/frontend/internal/session"
	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/degixdaw/filebrowser/shared/logger"
)

var (
	// ErrSuperseded is returned to a caller whose operation was cancelled by a
	// newer one on the same slot. The cache state belongs to the newer call.
	ErrSuperseded = errors.New("superseded by a newer request")

	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("preview cache closed")
)

type Catalog interface {
	ListFiles(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error)
}

type Signer interface {
	SignPath(ctx context.Context, sess *session.Session, storagePath string) (string, error)
}

type Fetcher interface {
	FetchImage(ctx context.Context, signedURL string) (*domain.DecodedImage, error)
}

// slot guards one logical kind of request. Starting a request bumps gen and
// cancels whatever ran before; a result is applied only if gen is unchanged.
type slot struct {
	gen    uint64
	cancel context.CancelFunc
}

func (s *slot) start(parent context.Context) (context.Context, uint64) {
	s.stop()
	ctx, cancel := context.WithCancel(parent)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

func (s *slot) stop() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// finish releases the slot if gen still owns it. Reports whether it did.
func (s *slot) finish(gen uint64) bool {
	if s.gen != gen {
		return false
	}
	s.stop()
	return true
}

// Cache is the state machine behind the file list and preview pane. It is safe
// for concurrent use: a newer OnFilterChange or OnSelect cancels the older one.
type Cache struct {
	catalog Catalog
	signer  Signer
	fetcher Fetcher
	sess    *session.Session

	mu       sync.Mutex
	filter   domain.FilterCategory
	snapshot []domain.FileRecord
	current  *domain.DecodedImage
	selected int
	list     slot
	image    slot
	closed   bool
}

func New(catalog Catalog, signer Signer, fetcher Fetcher, sess *session.Session) *Cache {
	return &Cache{
		catalog:  catalog,
		signer:   signer,
		fetcher:  fetcher,
		sess:     sess,
		selected: -1,
	}
}

// OnFilterChange replaces the snapshot with a fresh listing for filter. The
// current image is dropped up front and again when the listing lands. When the
// listing fails the snapshot holds a single synthetic entry carrying the error
// text and the error is returned.
func (c *Cache) OnFilterChange(ctx context.Context, filter domain.FilterCategory) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.image.stop()
	c.image.gen++
	c.clearImageLocked()
	c.filter = filter
	listCtx, gen := c.list.start(ctx)
	c.mu.Unlock()

	files, err := c.catalog.ListFiles(listCtx, c.sess, filter)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.list.finish(gen) {
		logger.Log.Debug("discarding superseded listing", "component", "preview", "filter", filter.String())
		return ErrSuperseded
	}
	// a selection made against the old snapshot must not outlive it
	c.image.stop()
	c.image.gen++
	c.clearImageLocked()
	if err != nil {
		logger.Log.Warn("listing failed",
			"component", "preview",
			"filter", filter.String(),
			"kind", internal_errors.KindOf(err),
			"error", err)
		c.snapshot = []domain.FileRecord{domain.ErrorRecord(err)}
		return err
	}
	c.snapshot = files
	return nil
}

// OnSelect loads the preview for the record at index. Anything other than a
// successfully decoded image leaves the preview empty.
func (c *Cache) OnSelect(ctx context.Context, index int) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	// the previous preview request is stale the moment a new selection arrives
	c.image.stop()
	c.image.gen++
	c.clearImageLocked()

	if index < 0 || index >= len(c.snapshot) {
		n := len(c.snapshot)
		c.mu.Unlock()
		return internal_errors.New("select", internal_errors.MalformedInput, internal_errors.StageOpen,
			fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, n))
	}
	rec := c.snapshot[index]
	c.selected = index
	if rec.Synthetic || !rec.IsImage() {
		c.mu.Unlock()
		return nil
	}
	imgCtx, gen := c.image.start(ctx)
	c.mu.Unlock()

	img, err := c.load(imgCtx, rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.image.finish(gen) {
		logger.Log.Debug("discarding superseded preview", "component", "preview", "file", rec.FileName)
		return ErrSuperseded
	}
	if err != nil {
		logger.Log.Warn("preview failed",
			"component", "preview",
			"file", rec.FileName,
			"kind", internal_errors.KindOf(err),
			"error", err)
		return err
	}
	c.current = img
	return nil
}

func (c *Cache) load(ctx context.Context, rec domain.FileRecord) (*domain.DecodedImage, error) {
	signed, err := c.signer.SignPath(ctx, c.sess, rec.StoragePath)
	if err != nil {
		return nil, err
	}
	return c.fetcher.FetchImage(ctx, signed)
}

// clearImageLocked drops the held image so it can be collected.
func (c *Cache) clearImageLocked() {
	c.current = nil
	c.selected = -1
}

// Snapshot returns a copy of the current listing.
func (c *Cache) Snapshot() []domain.FileRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.FileRecord, len(c.snapshot))
	copy(out, c.snapshot)
	return out
}

// Current returns the decoded image on display and the index it belongs to,
// or nil and -1.
func (c *Cache) Current() (*domain.DecodedImage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil, -1
	}
	return c.current, c.selected
}

func (c *Cache) Filter() domain.FilterCategory {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filter
}

// Reset drops the snapshot and the image, e.g. after logout.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list.stop()
	c.list.gen++
	c.image.stop()
	c.image.gen++
	c.snapshot = nil
	c.clearImageLocked()
}

// Close cancels in-flight requests. Later calls fail with ErrClosed.
func (c *Cache) Close() {
	c.Reset()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
