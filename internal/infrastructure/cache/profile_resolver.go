package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gatepass/backend/internal/domain/identity"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ProfileStore is an optional second cache tier behind the in-memory map.
// It lets multiple instances share resolved profiles.
type ProfileStore interface {
	Get(ctx context.Context, serviceNo string) (*identity.Profile, error)
	Set(ctx context.Context, profile identity.Profile) error
}

// ProfileResolver implements identity.Resolver with an in-memory cache in
// front of the directory lookup. Entries never age out on their own; a
// cached profile is served until a caller explicitly forces a refresh.
// Concurrent lookups for the same service number are coalesced into a
// single remote call.
type ProfileResolver struct {
	lookup identity.DirectoryLookup
	store  ProfileStore
	logger *zap.Logger

	mu       sync.RWMutex
	profiles map[string]identity.Profile
	group    singleflight.Group

	// Stats for monitoring
	hits   int64
	misses int64
}

// ProfileResolverOption is a functional option for configuring the resolver
type ProfileResolverOption func(*ProfileResolver)

// WithResolverLogger sets the logger for the resolver
func WithResolverLogger(logger *zap.Logger) ProfileResolverOption {
	return func(r *ProfileResolver) {
		r.logger = logger
	}
}

// WithProfileStore adds a shared second cache tier behind the in-memory map
func WithProfileStore(store ProfileStore) ProfileResolverOption {
	return func(r *ProfileResolver) {
		r.store = store
	}
}

// NewProfileResolver creates a resolver backed by the given directory lookup
func NewProfileResolver(lookup identity.DirectoryLookup, opts ...ProfileResolverOption) *ProfileResolver {
	resolver := &ProfileResolver{
		lookup:   lookup,
		logger:   zap.NewNop(),
		profiles: make(map[string]identity.Profile),
	}

	for _, opt := range opts {
		opt(resolver)
	}

	return resolver
}

// Resolve returns the profile for a service number. In CacheFirst mode a
// cached entry is served directly; ForceRefresh always goes to the lookup.
// A lookup that fails while a cached entry exists keeps serving the old
// entry rather than erroring. A lookup failure with no cached entry maps to
// identity.ErrProfileNotFound.
func (r *ProfileResolver) Resolve(ctx context.Context, serviceNo string, mode identity.ResolveMode) (*identity.Profile, error) {
	if serviceNo == "" {
		return nil, identity.ErrProfileNotFound
	}

	if mode == identity.CacheFirst {
		if profile, ok := r.cached(serviceNo); ok {
			atomic.AddInt64(&r.hits, 1)
			r.logger.Debug("Profile cache hit", zap.String("service_no", serviceNo))
			return &profile, nil
		}
		if r.store != nil {
			if profile, err := r.store.Get(ctx, serviceNo); err == nil && profile != nil {
				atomic.AddInt64(&r.hits, 1)
				r.put(*profile)
				return profile, nil
			}
		}
		atomic.AddInt64(&r.misses, 1)
	}

	value, err, _ := r.group.Do(serviceNo, func() (any, error) {
		return r.refresh(ctx, serviceNo)
	})
	if err != nil {
		// A stale entry beats a failed refresh.
		if profile, ok := r.cached(serviceNo); ok {
			r.logger.Warn("Profile refresh failed, serving cached entry",
				zap.String("service_no", serviceNo),
				zap.Error(err))
			return &profile, nil
		}
		if errors.Is(err, identity.ErrProfileNotFound) {
			return nil, identity.ErrProfileNotFound
		}
		r.logger.Warn("Profile lookup failed",
			zap.String("service_no", serviceNo),
			zap.Error(err))
		return nil, identity.ErrProfileNotFound
	}

	profile := value.(identity.Profile)
	return &profile, nil
}

// refresh calls the directory and replaces the cache entry on success
func (r *ProfileResolver) refresh(ctx context.Context, serviceNo string) (identity.Profile, error) {
	profile, err := r.lookup.Lookup(ctx, serviceNo)
	if err != nil {
		return identity.Profile{}, err
	}
	if profile == nil {
		return identity.Profile{}, identity.ErrProfileNotFound
	}

	r.put(*profile)
	if r.store != nil {
		if err := r.store.Set(ctx, *profile); err != nil {
			r.logger.Warn("Failed to write profile to shared cache",
				zap.String("service_no", serviceNo),
				zap.Error(err))
		}
	}

	r.logger.Debug("Profile refreshed from directory", zap.String("service_no", serviceNo))
	return *profile, nil
}

// Seed primes the cache with an already resolved profile, typically the
// session user's own profile. An existing entry is not overwritten.
func (r *ProfileResolver) Seed(profile identity.Profile) {
	if profile.ServiceNo == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.profiles[profile.ServiceNo]; !exists {
		r.profiles[profile.ServiceNo] = profile
	}
}

func (r *ProfileResolver) cached(serviceNo string) (identity.Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[serviceNo]
	return profile, ok
}

func (r *ProfileResolver) put(profile identity.Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.ServiceNo] = profile
}

// GetStats returns cache statistics
func (r *ProfileResolver) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&r.hits), atomic.LoadInt64(&r.misses)
}

// Count returns the number of cached profiles
func (r *ProfileResolver) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}

// Ensure ProfileResolver implements identity.Resolver
var _ identity.Resolver = (*ProfileResolver)(nil)
