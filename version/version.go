// Package version looks up the latest release and tells the user when theirs is behind.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/where"
)

// ReleasesURL is the GitHub API endpoint describing the latest release.
const ReleasesURL = "https://api.github.com/repos/reel-cli/reel/releases/latest"

func cacher() *gache.Cache[string] {
	return gache.New[string](&gache.Options{
		Path:       filepath.Join(where.Cache(), "version.json"),
		Lifetime:   time.Hour * 24 * 2,
		FileSystem: filesystem.CacheFs{},
	})
}

// Latest returns the latest released version, cached for two days.
func Latest(ctx context.Context, fetcher network.Fetcher) (string, error) {
	cache := cacher()

	ver, expired, err := cache.Get()
	if err != nil {
		return "", err
	}
	if !expired && ver != "" {
		return ver, nil
	}

	body, err := fetcher.FetchText(ctx, ReleasesURL, map[string]string{"Accept": "application/vnd.github+json"}, 5*time.Second)
	if err != nil {
		return "", err
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.Unmarshal([]byte(body), &release); err != nil {
		return "", fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	ver = strings.TrimPrefix(release.TagName, "v")
	_ = cache.Set(ver)
	return ver, nil
}
