package ratelimiter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(rate, capacity float64, ttl time.Duration) (*KeyedLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := New(rate, capacity, ttl)
	l.now = clock.now
	return l, clock
}

func TestKeyedLimiter_Allow(t *testing.T) {
	t.Run("burst then deny", func(t *testing.T) {
		l, _ := newTestLimiter(1, 3, time.Hour)
		for i := 0; i < 3; i++ {
			assert.True(t, l.Allow("a"), "request %d", i)
		}
		assert.False(t, l.Allow("a"))
	})

	t.Run("refills over time", func(t *testing.T) {
		l, clock := newTestLimiter(1, 1, time.Hour)
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))

		clock.advance(500 * time.Millisecond)
		assert.False(t, l.Allow("a"))

		clock.advance(600 * time.Millisecond)
		assert.True(t, l.Allow("a"))
	})

	t.Run("does not exceed capacity", func(t *testing.T) {
		l, clock := newTestLimiter(1, 2, time.Hour)
		assert.True(t, l.Allow("a"))
		clock.advance(time.Hour / 2)
		assert.True(t, l.Allow("a"))
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		l, _ := newTestLimiter(1, 1, time.Hour)
		assert.True(t, l.Allow("a"))
		assert.False(t, l.Allow("a"))
		assert.True(t, l.Allow("b"))
	})

	t.Run("idle buckets are swept", func(t *testing.T) {
		l, clock := newTestLimiter(1, 1, time.Minute)
		l.Allow("a")
		l.Allow("b")
		assert.Equal(t, 2, l.Len())

		clock.advance(2 * time.Minute)
		l.Allow("c")
		assert.Equal(t, 1, l.Len())
	})

	t.Run("concurrent requests", func(t *testing.T) {
		l, _ := newTestLimiter(1, 10, time.Hour)
		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Allow("a") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, 10, allowed)
	})
}
