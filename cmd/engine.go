package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/reel-cli/reel/browser"
	"github.com/reel-cli/reel/dispatch"
	"github.com/reel-cli/reel/key"
	"github.com/reel-cli/reel/log"
	"github.com/reel-cli/reel/network"
	"github.com/reel-cli/reel/resolver"
	"github.com/reel-cli/reel/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

func newFetcher() *network.Client {
	return network.New(network.Options{
		Timeout:        time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second,
		UserAgent:      viper.GetString(key.NetworkUserAgent),
		TLSFingerprint: viper.GetBool(key.NetworkTLSFingerprint),
	})
}

// resolverSource is the configured resolver location, the local resolvers.json by default.
func resolverSource() string {
	return lo.CoalesceOrEmpty(viper.GetString(key.ResolversSource), where.Resolvers())
}

func loadSnapshot(ctx context.Context, fetcher network.Fetcher) (*resolver.Snapshot, error) {
	return resolver.Load(ctx, resolverSource(), resolver.LoadOptions{
		Fetcher:       fetcher,
		CachePath:     where.ResolversCache(),
		CacheLifetime: time.Duration(viper.GetInt(key.ResolversCacheLifetime)) * time.Hour,
		ExtraAds:      viper.GetStringSlice(key.RulesAds),
	})
}

// engine is a dispatcher together with the browser it may have started.
type engine struct {
	dispatcher *dispatch.Dispatcher
	renderer   *browser.Renderer
}

func newEngine(ctx context.Context) (*engine, error) {
	fetcher := newFetcher()

	snapshot, err := loadSnapshot(ctx, fetcher)
	if err != nil {
		return nil, fmt.Errorf("load resolvers from %s: %w", resolverSource(), err)
	}

	e := &engine{}
	opts := dispatch.Options{
		Fetcher:         fetcher,
		FetchTimeout:    time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second,
		SniffTimeout:    time.Duration(viper.GetInt(key.SniffTimeout)) * time.Second,
		DefaultResolver: viper.GetString(key.ResolversDefault),
	}

	if viper.GetBool(key.SniffEnabled) {
		e.renderer = browser.New(browser.Options{
			Bin:         viper.GetString(key.SniffBrowserBin),
			Headless:    viper.GetBool(key.SniffHeadless),
			UserDataDir: where.Browser(),
		})
		opts.Renderer = e.renderer
	} else {
		log.Info("sniffing disabled")
	}

	e.dispatcher = dispatch.New(snapshot, opts)
	return e, nil
}

func (e *engine) Close() {
	if e.renderer == nil {
		return
	}
	if err := e.renderer.Close(); err != nil {
		log.Warnf("close browser: %s", err)
	}
}
