package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory is a scriptable DirectoryLookup for resolver tests
type fakeDirectory struct {
	mu       sync.Mutex
	profiles map[string]identity.Profile
	err      error
	delay    time.Duration
	calls    int64
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{profiles: make(map[string]identity.Profile)}
}

func (d *fakeDirectory) add(serviceNo, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[serviceNo] = identity.Profile{
		ServiceNo:   serviceNo,
		DisplayName: name,
		Section:     "NOC",
		Group:       "Network",
		Designation: "Engineer",
		ContactNo:   "0771234567",
		Source:      identity.SourceDirectory,
	}
}

func (d *fakeDirectory) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

func (d *fakeDirectory) callCount() int64 {
	return atomic.LoadInt64(&d.calls)
}

func (d *fakeDirectory) Lookup(_ context.Context, serviceNo string) (*identity.Profile, error) {
	atomic.AddInt64(&d.calls, 1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	profile, ok := d.profiles[serviceNo]
	if !ok {
		return nil, identity.ErrProfileNotFound
	}
	return &profile, nil
}

func TestProfileResolver_CacheFirst(t *testing.T) {
	ctx := context.Background()

	t.Run("miss goes to the directory, hit does not", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.add("EMP100", "Nimal Perera")
		resolver := NewProfileResolver(dir)

		profile, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName)
		assert.EqualValues(t, 1, dir.callCount())

		profile, err = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName)
		assert.EqualValues(t, 1, dir.callCount(), "cached entry must not trigger a lookup")
	})

	t.Run("cached entry is served even after the directory changes", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.add("EMP100", "Nimal Perera")
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)

		dir.add("EMP100", "N. Perera (Updated)")

		profile, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName, "staleness is bounded only by explicit refresh")
	})

	t.Run("unknown identifier maps to not found", func(t *testing.T) {
		resolver := NewProfileResolver(newFakeDirectory())

		_, err := resolver.Resolve(ctx, "EMP999", identity.CacheFirst)
		assert.ErrorIs(t, err, identity.ErrProfileNotFound)
	})

	t.Run("transport failure maps to not found", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.setErr(errors.New("dial tcp: connection refused"))
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		assert.ErrorIs(t, err, identity.ErrProfileNotFound)
	})

	t.Run("empty identifier is not found", func(t *testing.T) {
		resolver := NewProfileResolver(newFakeDirectory())

		_, err := resolver.Resolve(ctx, "", identity.CacheFirst)
		assert.ErrorIs(t, err, identity.ErrProfileNotFound)
	})
}

func TestProfileResolver_ForceRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the cached entry", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.add("EMP100", "Nimal Perera")
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)

		dir.add("EMP100", "N. Perera (Updated)")

		profile, err := resolver.Resolve(ctx, "EMP100", identity.ForceRefresh)
		require.NoError(t, err)
		assert.Equal(t, "N. Perera (Updated)", profile.DisplayName)

		// The refreshed entry now serves cache-first reads.
		profile, err = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "N. Perera (Updated)", profile.DisplayName)
	})

	t.Run("failed refresh keeps the previous entry", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.add("EMP100", "Nimal Perera")
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)

		dir.setErr(errors.New("upstream timeout"))

		profile, err := resolver.Resolve(ctx, "EMP100", identity.ForceRefresh)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName)

		// And the entry is still there for the next read.
		profile, err = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName)
	})

	t.Run("failed refresh with no entry is not found", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.setErr(errors.New("upstream timeout"))
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.ForceRefresh)
		assert.ErrorIs(t, err, identity.ErrProfileNotFound)
	})
}

func TestProfileResolver_CoalescesConcurrentLookups(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("EMP100", "Nimal Perera")
	dir.delay = 20 * time.Millisecond
	resolver := NewProfileResolver(dir)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := resolver.Resolve(context.Background(), "EMP100", identity.CacheFirst)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, dir.callCount(), "concurrent misses must share one lookup")
}

func TestProfileResolver_Seed(t *testing.T) {
	ctx := context.Background()

	t.Run("seeded profile short-circuits the directory", func(t *testing.T) {
		dir := newFakeDirectory()
		resolver := NewProfileResolver(dir)

		resolver.Seed(identity.Profile{
			ServiceNo:   "EMP100",
			DisplayName: "Nimal Perera",
			Source:      identity.SourceSession,
		})

		profile, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, identity.SourceSession, profile.Source)
		assert.Zero(t, dir.callCount())
	})

	t.Run("seed does not overwrite an existing entry", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.add("EMP100", "Nimal Perera")
		resolver := NewProfileResolver(dir)

		_, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)

		resolver.Seed(identity.Profile{ServiceNo: "EMP100", DisplayName: "Session Copy"})

		profile, err := resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
		require.NoError(t, err)
		assert.Equal(t, "Nimal Perera", profile.DisplayName)
	})

	t.Run("empty service number is ignored", func(t *testing.T) {
		resolver := NewProfileResolver(newFakeDirectory())
		resolver.Seed(identity.Profile{DisplayName: "Nobody"})
		assert.Zero(t, resolver.Count())
	})
}

func TestProfileResolver_Stats(t *testing.T) {
	dir := newFakeDirectory()
	dir.add("EMP100", "Nimal Perera")
	resolver := NewProfileResolver(dir)
	ctx := context.Background()

	_, _ = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
	_, _ = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)
	_, _ = resolver.Resolve(ctx, "EMP100", identity.CacheFirst)

	hits, misses := resolver.GetStats()
	assert.EqualValues(t, 2, hits)
	assert.EqualValues(t, 1, misses)
	assert.Equal(t, 1, resolver.Count())
}
