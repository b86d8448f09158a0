// Package app assembles the price service from configuration.
package app

import (
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/guarzo/pcmatch/internal/cache"
	"github.com/guarzo/pcmatch/internal/config"
	"github.com/guarzo/pcmatch/internal/metrics"
	"github.com/guarzo/pcmatch/internal/prices"
	"github.com/guarzo/pcmatch/internal/ratelimit"
	"github.com/guarzo/pcmatch/internal/sets"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config   *config.Config
	Cache    *cache.Cache
	Client   *prices.Client
	Throttle *ratelimit.MinDelay
	Sets     *sets.Catalog
	Service  *prices.Service
}

func New(cfg *config.Config) (*App, error) {
	var cacheOpts []cache.Option
	if cfg.CacheMaxEntries > 0 {
		cacheOpts = append(cacheOpts, cache.WithMaxEntries(cfg.CacheMaxEntries))
	}
	store, err := cache.New(cfg.CachePath, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	parser := prices.NewDefaultDetailParser()
	if cfg.PatternsPath != "" {
		table, err := prices.LoadPatterns(cfg.PatternsPath)
		if err != nil {
			return nil, err
		}
		if parser, err = prices.NewDetailParser(table); err != nil {
			return nil, err
		}
	}

	setCatalog, err := sets.NewDefaultCatalog(cfg.CustomSetsPath)
	if err != nil {
		return nil, fmt.Errorf("load set catalog: %w", err)
	}

	throttle := ratelimit.NewMinDelay(cfg.ThrottleDelay)
	client := prices.NewClient(cfg.Token,
		prices.WithBaseURL(cfg.BaseURL),
		prices.WithTimeout(cfg.Timeout),
		prices.WithSearchEndpoints(cfg.SearchEndpoints),
		prices.WithThrottle(throttle),
	)
	if !client.Available() {
		log.Printf("PriceCharting token missing or malformed; lookups will fail until %s is set", config.EnvToken)
	}

	svc := prices.NewService(client, store,
		prices.WithDetailParser(parser),
		prices.WithSetCatalog(setCatalog),
	)

	return &App{
		Config:   cfg,
		Cache:    store,
		Client:   client,
		Throttle: throttle,
		Sets:     setCatalog,
		Service:  svc,
	}, nil
}

// StartSweeper removes expired cache entries on the configured cron
// schedule. The returned stop function waits for a running sweep to
// finish. An empty schedule starts nothing.
func (a *App) StartSweeper() (stop func(), err error) {
	if a.Config.CacheSweepSchedule == "" {
		return func() {}, nil
	}

	c := cron.New()
	if _, err := c.AddFunc(a.Config.CacheSweepSchedule, a.sweep); err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", config.EnvCacheSweepSchedule, a.Config.CacheSweepSchedule, err)
	}
	c.Start()
	log.Printf("Cache sweep scheduled: %s", a.Config.CacheSweepSchedule)

	return func() {
		<-c.Stop().Done()
	}, nil
}

func (a *App) sweep() {
	removed, err := a.Cache.Sweep()
	if err != nil {
		log.Printf("Cache sweep failed: %v", err)
	}
	if removed > 0 {
		metrics.CacheSweepRemoved.Add(float64(removed))
		log.Printf("Cache sweep removed %d expired entries", removed)
	}
}
