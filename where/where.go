// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/reel-cli/reel/constant"
	"github.com/reel-cli/reel/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "REEL_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The REEL_CONFIG_PATH environment variable takes precedence over the platform default.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.Reel))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.Reel))
}

// Logs resolves the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Resolvers resolves the local resolver configuration file used when no source is configured.
func Resolvers() string {
	return filepath.Join(Config(), "resolvers.json")
}

// ResolversCache resolves the on-disk copy of the last fetched remote resolver configuration.
func ResolversCache() string {
	return filepath.Join(Cache(), "resolvers_cache.json")
}

// Browser resolves the directory where a downloaded Chromium build and its profiles live.
func Browser() string {
	return ensureDir(filepath.Join(Cache(), "browser"))
}

// Temp resolves a unique, volatile filesystem path for transient application artifacts.
func Temp() string {
	return ensureDir(filepath.Join(os.TempDir(), constant.Reel))
}
