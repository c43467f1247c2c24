package config

import (
	"testing"
	"time"

	"github.com/canopy-network/suinsx/pkg/indexer/pipeline"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"REMOTE_STORE_URL", "LOCAL_INGESTION_PATH", "CONTRACT_PACKAGE_ID", "POSTGRES_URL",
		"FIRST_CHECKPOINT", "LAST_CHECKPOINT", "PIPELINES", "POLL_INTERVAL", "REDIS_HOST"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, []string{DefaultRemoteStoreURL}, cfg.RemoteStoreURLs)
	require.Equal(t, DefaultPackageID, cfg.PackageID)
	require.Equal(t, pipeline.Names, cfg.Pipelines)
	require.Nil(t, cfg.FirstCheckpoint)
	require.Nil(t, cfg.LastCheckpoint)
	require.Equal(t, time.Second, cfg.PollInterval)
	require.Equal(t, 5, cfg.BidRetryLimit)
	require.False(t, cfg.RedisEnabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REMOTE_STORE_URL", "http://a.example/, http://b.example,http://a.example")
	t.Setenv("CONTRACT_PACKAGE_ID", "0xABCD")
	t.Setenv("FIRST_CHECKPOINT", "100")
	t.Setenv("LAST_CHECKPOINT", "200")
	t.Setenv("PIPELINES", "auctions, offers")
	t.Setenv("POLL_INTERVAL", "250ms")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.RemoteStoreURLs)
	require.Equal(t, "0xabcd", cfg.PackageID)
	require.Equal(t, uint64(100), *cfg.FirstCheckpoint)
	require.Equal(t, uint64(200), *cfg.LastCheckpoint)
	require.Equal(t, []string{pipeline.AuctionsPipeline, pipeline.OffersPipeline}, cfg.Pipelines)
	require.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	require.True(t, cfg.RedisEnabled())
}

func TestLoadRejectsMalformedCheckpoint(t *testing.T) {
	t.Setenv("FIRST_CHECKPOINT", "ten")
	_, err := Load()
	require.ErrorContains(t, err, "FIRST_CHECKPOINT")
}

func TestValidate(t *testing.T) {
	first, last := uint64(10), uint64(5)
	cfg := &Config{
		RemoteStoreURLs:        []string{"ftp://nope"},
		PackageID:              "feed",
		PostgresURL:            "postgres://x",
		Pipelines:              []string{"offers", "bids", "offers"},
		FirstCheckpoint:        &first,
		LastCheckpoint:         &last,
		ProgressReportSchedule: "every minute",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"REMOTE_STORE_URL", "CONTRACT_PACKAGE_ID", `unknown pipeline "bids"`,
		`"offers" listed twice`, "LAST_CHECKPOINT", "PROGRESS_REPORT_SCHEDULE"} {
		require.ErrorContains(t, err, want)
	}

	cfg.RemoteStoreURLs = nil
	cfg.LocalIngestionPath = "/data/checkpoints"
	cfg.PackageID = "0xfeed"
	cfg.Pipelines = []string{"offers"}
	cfg.LastCheckpoint = nil
	cfg.ProgressReportSchedule = "@every 30s"
	require.NoError(t, cfg.Validate())
}
