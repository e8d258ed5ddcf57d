package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
)

// maxConfigSize bounds a resolver configuration document.
const maxConfigSize = 4 << 20

// LoadOptions configure where a snapshot comes from.
type LoadOptions struct {
	// Fetcher downloads remote configurations.
	Fetcher network.Fetcher
	// CachePath is where a remote configuration is cached. Empty disables caching.
	CachePath string
	// CacheLifetime is how long a cached remote configuration stays fresh.
	CacheLifetime time.Duration
	// ExtraAds are merged into the configuration's ad host list.
	ExtraAds []string
}

// Load reads a snapshot from location, a local path or an http(s) URL.
//
// Remote configurations are cached on disk. A failed download falls back to the cached
// copy even when it is stale.
func Load(ctx context.Context, location string, opts LoadOptions) (*Snapshot, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("%w: empty resolver config location", ErrInvalidResolver)
	}

	if !isRemote(location) {
		data, err := filesystem.ReadLimited(location, maxConfigSize)
		if err != nil {
			return nil, fmt.Errorf("read resolver config: %w", err)
		}
		return Parse(data, opts.ExtraAds...)
	}

	body, err := fetchRemote(ctx, location, opts)
	if err != nil {
		return nil, err
	}
	return Parse([]byte(body), opts.ExtraAds...)
}

type remoteConfig struct {
	Location string `json:"location"`
	Body     string `json:"body"`
}

func fetchRemote(ctx context.Context, location string, opts LoadOptions) (string, error) {
	if opts.Fetcher == nil {
		return "", fmt.Errorf("%w: no fetcher for remote resolver config", ErrInvalidResolver)
	}

	var cacher *gache.Cache[*remoteConfig]
	var cached *remoteConfig

	if opts.CachePath != "" {
		cacher = gache.New[*remoteConfig](&gache.Options{
			Path:       opts.CachePath,
			Lifetime:   opts.CacheLifetime,
			FileSystem: filesystem.CacheFs{},
		})

		data, expired, err := cacher.Get()
		if err == nil && data != nil && data.Location == location {
			if !expired {
				log.Debugf("resolver config: using cached copy of %s", location)
				return data.Body, nil
			}
			cached = data
		}
	}

	body, err := opts.Fetcher.FetchText(ctx, location, nil, 0)
	if err != nil {
		if cached != nil {
			log.Warnf("resolver config: fetch %s failed, using stale cache: %v", location, err)
			return cached.Body, nil
		}
		return "", fmt.Errorf("fetch resolver config: %w", err)
	}

	if cacher != nil {
		if err := cacher.Set(&remoteConfig{Location: location, Body: body}); err != nil {
			log.Warnf("resolver config: cache write failed: %v", err)
		}
	}

	return body, nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
