package config

import (
	"context"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ConfigResolver layers each repository's .brancher.toml over the global
// config. Results are cached for the life of the resolver, which is one
// command invocation. Safe for concurrent use by per-repo workers.
type ConfigResolver struct {
	global *Config

	loads singleflight.Group
	mu    sync.RWMutex
	cache map[string]*Config
}

func NewResolver(global *Config) *ConfigResolver {
	return &ConfigResolver{global: global, cache: make(map[string]*Config)}
}

// Global returns the config without any repository overrides.
func (r *ConfigResolver) Global() *Config {
	return r.global
}

// ConfigForRepo returns the effective config inside repoPath. It is the
// global config itself when the repository has no local file. Concurrent
// calls for one path read the file once.
func (r *ConfigResolver) ConfigForRepo(repoPath string) (*Config, error) {
	key := filepath.Clean(repoPath)

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := r.loads.Do(key, func() (any, error) {
		local, err := LoadLocal(key)
		if err != nil {
			return nil, err
		}
		merged := MergeLocal(r.global, local)
		r.mu.Lock()
		r.cache[key] = merged
		r.mu.Unlock()
		return merged, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

type resolverKey struct{}

func WithResolver(ctx context.Context, r *ConfigResolver) context.Context {
	return context.WithValue(ctx, resolverKey{}, r)
}

// ResolverFromContext returns the resolver attached to ctx. Without one it
// builds a resolver over the context's global config.
func ResolverFromContext(ctx context.Context) *ConfigResolver {
	if r, ok := ctx.Value(resolverKey{}).(*ConfigResolver); ok {
		return r
	}
	return NewResolver(FromContext(ctx))
}
