// Package config collects the indexer's environment into one validated struct.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/canopy-network/suinsx/pkg/indexer/pipeline"
	"github.com/canopy-network/suinsx/pkg/redis"
	"github.com/canopy-network/suinsx/pkg/utils"
	"github.com/robfig/cron/v3"
)

const (
	DefaultRemoteStoreURL = "https://checkpoints.testnet.sui.io"
	// DefaultPackageID is the SuiNS marketplace package on testnet.
	DefaultPackageID   = "0xe42285c9bfdda621f8164264223c231ecd1818c6dff8af962ab9e21f5877078b"
	DefaultPostgresURL = "postgres://localhost:5432/postgres"
)

type Config struct {
	RemoteStoreURLs    []string
	LocalIngestionPath string
	PackageID          string
	PostgresURL        string

	FirstCheckpoint *uint64
	LastCheckpoint  *uint64
	Pipelines       []string

	Addr          string
	PollInterval  time.Duration
	CacheSize     int
	RPS           int
	Burst         int
	BidRetryLimit int
	MaxFailures   int

	Redis redis.Config

	ProgressReportSchedule string
}

// Load reads the environment. It fails only on values that cannot be parsed at all; range and
// consistency checks are left to Validate.
func Load() (*Config, error) {
	first, err := utils.EnvUint64Ptr("FIRST_CHECKPOINT")
	if err != nil {
		return nil, err
	}
	last, err := utils.EnvUint64Ptr("LAST_CHECKPOINT")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RemoteStoreURLs:    utils.Dedup(utils.EnvList("REMOTE_STORE_URL", []string{DefaultRemoteStoreURL})),
		LocalIngestionPath: utils.Env("LOCAL_INGESTION_PATH", ""),
		PackageID:          strings.ToLower(utils.Env("CONTRACT_PACKAGE_ID", DefaultPackageID)),
		PostgresURL:        utils.Env("POSTGRES_URL", DefaultPostgresURL),

		FirstCheckpoint: first,
		LastCheckpoint:  last,
		Pipelines:       utils.EnvList("PIPELINES", pipeline.Names),

		Addr:          utils.Env("ADDR", ":9184"),
		PollInterval:  utils.EnvDuration("POLL_INTERVAL", time.Second),
		CacheSize:     utils.EnvInt("CACHE_SIZE", 256),
		RPS:           utils.EnvInt("RPS", 20),
		Burst:         utils.EnvInt("BURST", 40),
		BidRetryLimit: utils.EnvInt("BID_RETRY_LIMIT", 5),
		MaxFailures:   utils.EnvInt("MAX_FAILURES", 5),

		Redis: redis.Config{
			Host:         utils.Env("REDIS_HOST", ""),
			Port:         utils.Env("REDIS_PORT", "6379"),
			Password:     utils.Env("REDIS_PASSWORD", ""),
			DB:           utils.EnvInt("REDIS_DB", 0),
			StreamMaxLen: utils.EnvInt64("REDIS_STREAM_MAX_LEN", redis.DefaultStreamMaxLen),
		},

		ProgressReportSchedule: utils.Env("PROGRESS_REPORT_SCHEDULE", "@every 1m"),
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.LocalIngestionPath == "" {
		if len(c.RemoteStoreURLs) == 0 {
			errs = append(errs, errors.New("REMOTE_STORE_URL or LOCAL_INGESTION_PATH is required"))
		}
		for _, raw := range c.RemoteStoreURLs {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, fmt.Errorf("REMOTE_STORE_URL: invalid url %q", raw))
			}
		}
	}

	if !strings.HasPrefix(c.PackageID, "0x") || len(c.PackageID) < 3 {
		errs = append(errs, fmt.Errorf("CONTRACT_PACKAGE_ID: %q is not a 0x-prefixed address", c.PackageID))
	}
	if c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}

	if len(c.Pipelines) == 0 {
		errs = append(errs, errors.New("PIPELINES: at least one pipeline is required"))
	}
	for i, name := range c.Pipelines {
		if !slices.Contains(pipeline.Names, name) {
			errs = append(errs, fmt.Errorf("PIPELINES: unknown pipeline %q", name))
		}
		if slices.Contains(c.Pipelines[:i], name) {
			errs = append(errs, fmt.Errorf("PIPELINES: %q listed twice", name))
		}
	}

	if c.FirstCheckpoint != nil && c.LastCheckpoint != nil && *c.LastCheckpoint < *c.FirstCheckpoint {
		errs = append(errs, fmt.Errorf("LAST_CHECKPOINT %d is before FIRST_CHECKPOINT %d", *c.LastCheckpoint, *c.FirstCheckpoint))
	}

	if _, err := cron.ParseStandard(c.ProgressReportSchedule); err != nil {
		errs = append(errs, fmt.Errorf("PROGRESS_REPORT_SCHEDULE: %w", err))
	}

	return errors.Join(errs...)
}

// RedisEnabled reports whether checkpoint notifications should be published.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}
