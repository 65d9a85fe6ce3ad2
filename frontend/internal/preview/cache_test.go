package preview

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/degixdaw/filebrowser/frontend/internal/session"
	"github.com/degixdaw/filebrowser/shared/domain"
	internal_errors "github.com/degixdaw/filebrowser/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type mockCatalog struct {
	ListFilesFunc func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error)
	calls         atomic.Int32
}

func (m *mockCatalog) ListFiles(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
	m.calls.Add(1)
	if m.ListFilesFunc != nil {
		return m.ListFilesFunc(ctx, sess, filter)
	}
	return nil, nil
}

type mockSigner struct {
	SignPathFunc func(ctx context.Context, sess *session.Session, storagePath string) (string, error)
	calls        atomic.Int32
}

func (m *mockSigner) SignPath(ctx context.Context, sess *session.Session, storagePath string) (string, error) {
	m.calls.Add(1)
	if m.SignPathFunc != nil {
		return m.SignPathFunc(ctx, sess, storagePath)
	}
	return "https://x/signed/" + storagePath, nil
}

type mockFetcher struct {
	FetchImageFunc func(ctx context.Context, url string) (*domain.DecodedImage, error)
	calls          atomic.Int32
}

func (m *mockFetcher) FetchImage(ctx context.Context, url string) (*domain.DecodedImage, error) {
	m.calls.Add(1)
	if m.FetchImageFunc != nil {
		return m.FetchImageFunc(ctx, url)
	}
	return testImage(), nil
}

func testImage() *domain.DecodedImage {
	return &domain.DecodedImage{Image: image.NewRGBA(image.Rect(0, 0, 4, 4)), Format: "png", Bytes: 10}
}

var testFiles = []domain.FileRecord{
	{FileName: "a.png", MimeType: "image/png", StoragePath: "u/a.png"},
	{FileName: "b.mp3", MimeType: "audio/mpeg", StoragePath: "u/b.mp3"},
	{FileName: "c.jpg", MimeType: "image/jpeg", StoragePath: "u/c.jpg"},
}

func setupCache(t *testing.T) (*Cache, *mockCatalog, *mockSigner, *mockFetcher) {
	t.Helper()
	catalog := &mockCatalog{ListFilesFunc: func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
		return testFiles, nil
	}}
	signer := &mockSigner{}
	fetcher := &mockFetcher{}
	sess := session.New()
	sess.SetUser("tok", "me", "me@example.com")
	return New(catalog, signer, fetcher, sess), catalog, signer, fetcher
}

// --- Tests ---

func TestOnFilterChange(t *testing.T) {
	t.Run("replaces snapshot", func(t *testing.T) {
		c, catalog, _, _ := setupCache(t)

		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterImages))
		assert.Equal(t, testFiles, c.Snapshot())
		assert.Equal(t, domain.FilterImages, c.Filter())
		assert.Equal(t, int32(1), catalog.calls.Load())
	})

	t.Run("clears the current image", func(t *testing.T) {
		c, _, _, _ := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		require.NoError(t, c.OnSelect(context.Background(), 0))
		img, _ := c.Current()
		require.NotNil(t, img)

		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		img, idx := c.Current()
		assert.Nil(t, img)
		assert.Equal(t, -1, idx)
	})

	t.Run("failure becomes a synthetic entry", func(t *testing.T) {
		c, catalog, _, _ := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		boom := internal_errors.New("list_files", internal_errors.Transport, internal_errors.StageConnect, errors.New("connection refused"))
		catalog.ListFilesFunc = func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
			return nil, boom
		}

		err := c.OnFilterChange(context.Background(), domain.FilterAll)
		require.ErrorIs(t, err, boom)

		snap := c.Snapshot()
		require.Len(t, snap, 1)
		assert.True(t, snap[0].Synthetic)
		assert.Contains(t, snap[0].FileName, "connection refused")
	})

	t.Run("passes the session", func(t *testing.T) {
		c, catalog, _, _ := setupCache(t)
		var got *session.Session
		catalog.ListFilesFunc = func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
			got = sess
			return nil, nil
		}
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		assert.Same(t, c.sess, got)
		assert.Empty(t, c.Snapshot())
	})

	t.Run("newer call supersedes older", func(t *testing.T) {
		c, catalog, _, _ := setupCache(t)
		started := make(chan struct{})
		catalog.ListFilesFunc = func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
			if filter == domain.FilterAudio {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			}
			return testFiles[:1], nil
		}

		var wg sync.WaitGroup
		var slowErr error
		wg.Add(1)
		go func() {
			defer wg.Done()
			slowErr = c.OnFilterChange(context.Background(), domain.FilterAudio)
		}()
		<-started

		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterImages))
		wg.Wait()

		assert.ErrorIs(t, slowErr, ErrSuperseded)
		assert.Equal(t, testFiles[:1], c.Snapshot())
		assert.Equal(t, domain.FilterImages, c.Filter())
	})

	t.Run("cancels an in-flight preview", func(t *testing.T) {
		c, _, _, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		started := make(chan struct{})
		fetcher.FetchImageFunc = func(ctx context.Context, url string) (*domain.DecodedImage, error) {
			close(started)
			<-ctx.Done()
			return testImage(), nil
		}

		done := make(chan error, 1)
		go func() { done <- c.OnSelect(context.Background(), 0) }()
		<-started

		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		select {
		case err := <-done:
			assert.ErrorIs(t, err, ErrSuperseded)
		case <-time.After(2 * time.Second):
			t.Fatal("preview was not cancelled")
		}
		img, _ := c.Current()
		assert.Nil(t, img)
	})
}

func TestOnSelect(t *testing.T) {
	t.Run("loads image", func(t *testing.T) {
		c, _, signer, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		var signedPath, fetchedURL string
		signer.SignPathFunc = func(ctx context.Context, sess *session.Session, storagePath string) (string, error) {
			signedPath = storagePath
			return "https://x/s", nil
		}
		want := testImage()
		fetcher.FetchImageFunc = func(ctx context.Context, url string) (*domain.DecodedImage, error) {
			fetchedURL = url
			return want, nil
		}

		require.NoError(t, c.OnSelect(context.Background(), 2))
		assert.Equal(t, "u/c.jpg", signedPath)
		assert.Equal(t, "https://x/s", fetchedURL)

		img, idx := c.Current()
		assert.Same(t, want, img)
		assert.Equal(t, 2, idx)
	})

	t.Run("out of range clears and makes no calls", func(t *testing.T) {
		c, _, signer, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		require.NoError(t, c.OnSelect(context.Background(), 0))
		signer.calls.Store(0)
		fetcher.calls.Store(0)

		for _, idx := range []int{-1, 3, 100} {
			err := c.OnSelect(context.Background(), idx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrIndexOutOfRange)
			assert.Equal(t, internal_errors.MalformedInput, internal_errors.KindOf(err))

			img, _ := c.Current()
			assert.Nil(t, img)
		}
		assert.Equal(t, int32(0), signer.calls.Load())
		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("empty snapshot", func(t *testing.T) {
		c, _, signer, _ := setupCache(t)
		assert.ErrorIs(t, c.OnSelect(context.Background(), 0), ErrIndexOutOfRange)
		assert.Equal(t, int32(0), signer.calls.Load())
	})

	t.Run("non image clears", func(t *testing.T) {
		c, _, signer, _ := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		require.NoError(t, c.OnSelect(context.Background(), 0))

		require.NoError(t, c.OnSelect(context.Background(), 1))
		img, _ := c.Current()
		assert.Nil(t, img)
		assert.Equal(t, int32(1), signer.calls.Load())
	})

	t.Run("synthetic entry is not previewable", func(t *testing.T) {
		c, catalog, signer, _ := setupCache(t)
		catalog.ListFilesFunc = func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
			return nil, errors.New("image/ looks like a mime type")
		}
		require.Error(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		require.NoError(t, c.OnSelect(context.Background(), 0))
		assert.Equal(t, int32(0), signer.calls.Load())
	})

	t.Run("sign failure clears and skips fetch", func(t *testing.T) {
		c, _, signer, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		require.NoError(t, c.OnSelect(context.Background(), 0))
		fetcher.calls.Store(0)

		denied := internal_errors.New("sign_path", internal_errors.Authorization, internal_errors.StageOpen, errors.New("not signed in"))
		signer.SignPathFunc = func(ctx context.Context, sess *session.Session, storagePath string) (string, error) {
			return "", denied
		}

		err := c.OnSelect(context.Background(), 2)
		assert.True(t, internal_errors.IsAuthorization(err))
		img, _ := c.Current()
		assert.Nil(t, img)
		assert.Equal(t, int32(0), fetcher.calls.Load())
	})

	t.Run("fetch failure clears", func(t *testing.T) {
		c, _, _, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
		require.NoError(t, c.OnSelect(context.Background(), 0))

		fetcher.FetchImageFunc = func(ctx context.Context, url string) (*domain.DecodedImage, error) {
			return nil, errors.New("decode failed")
		}
		require.Error(t, c.OnSelect(context.Background(), 2))
		img, _ := c.Current()
		assert.Nil(t, img)
	})

	t.Run("rapid selections keep one image", func(t *testing.T) {
		c, _, _, fetcher := setupCache(t)
		require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

		images := map[string]*domain.DecodedImage{}
		var mu sync.Mutex
		fetcher.FetchImageFunc = func(ctx context.Context, url string) (*domain.DecodedImage, error) {
			img := testImage()
			mu.Lock()
			images[url] = img
			mu.Unlock()
			return img, nil
		}

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = c.OnSelect(context.Background(), (i%2)*2)
			}(i)
		}
		wg.Wait()

		img, idx := c.Current()
		if img != nil {
			assert.Contains(t, []int{0, 2}, idx)
			mu.Lock()
			assert.Same(t, images["https://x/signed/"+testFiles[idx].StoragePath], img)
			mu.Unlock()
		}
	})
}

func TestFilterChangeTwice(t *testing.T) {
	c, _, _, _ := setupCache(t)
	require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
	require.NoError(t, c.OnSelect(context.Background(), 0))

	require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterImages))
	require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAudio))

	img, idx := c.Current()
	assert.Nil(t, img)
	assert.Equal(t, -1, idx)
}

func TestSelectDuringListing(t *testing.T) {
	for name, result := range map[string]error{"listing succeeds": nil, "listing fails": errors.New("boom")} {
		t.Run(name, func(t *testing.T) {
			c, catalog, _, fetcher := setupCache(t)
			require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))

			started := make(chan struct{})
			release := make(chan struct{})
			catalog.ListFilesFunc = func(ctx context.Context, sess *session.Session, filter domain.FilterCategory) ([]domain.FileRecord, error) {
				close(started)
				<-release
				if result != nil {
					return nil, result
				}
				return []domain.FileRecord{{FileName: "song.mp3", MimeType: "audio/mpeg", StoragePath: "u/song.mp3"}}, nil
			}

			listErr := make(chan error, 1)
			go func() { listErr <- c.OnFilterChange(context.Background(), domain.FilterAudio) }()
			<-started

			// index 0 still resolves against the old listing
			require.NoError(t, c.OnSelect(context.Background(), 0))
			img, idx := c.Current()
			require.NotNil(t, img)
			assert.Equal(t, 0, idx)
			assert.Equal(t, int32(1), fetcher.calls.Load())

			close(release)
			err := <-listErr
			if result != nil {
				assert.ErrorIs(t, err, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "song.mp3", c.Snapshot()[0].FileName)
			}

			img, idx = c.Current()
			assert.Nil(t, img, "image from the old listing must not survive the new one")
			assert.Equal(t, -1, idx)
		})
	}
}

func TestResetAndClose(t *testing.T) {
	c, catalog, _, _ := setupCache(t)
	require.NoError(t, c.OnFilterChange(context.Background(), domain.FilterAll))
	require.NoError(t, c.OnSelect(context.Background(), 0))

	c.Reset()
	assert.Empty(t, c.Snapshot())
	img, _ := c.Current()
	assert.Nil(t, img)

	c.Close()
	assert.ErrorIs(t, c.OnFilterChange(context.Background(), domain.FilterAll), ErrClosed)
	assert.ErrorIs(t, c.OnSelect(context.Background(), 0), ErrClosed)
	assert.Equal(t, int32(1), catalog.calls.Load())
}
