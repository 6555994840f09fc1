package brokerclient_test

import (
	"flag"
	"testing"
	"time"

	"github.com/grafana/brokerclient/pkg/brokerclient"
	"github.com/grafana/dskit/flagext"
	"github.com/stretchr/testify/require"
)

func TestConfig_RegisterFlagsWithPrefix(t *testing.T) {
	var cfg brokerclient.Config
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlagsWithPrefix("test", fs)

	require.Equal(t, 10*time.Second, cfg.DialTimeout)
	require.Equal(t, 1<<20, cfg.MaxBatchBytes)
	require.Equal(t, 5*time.Millisecond, cfg.Linger)
	require.Equal(t, brokerclient.DefaultBackoffConfig.Initial, cfg.Backoff.Initial)
}

func TestConfig_FlagsOverrideDefaults(t *testing.T) {
	var cfg brokerclient.Config
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlagsWithPrefix("test", fs)

	require.NoError(t, fs.Parse([]string{"-test.max-batch-bytes=4096", "-test.linger=20ms", "-test.sasl-password=s3cr3t"}))

	require.Equal(t, 4096, cfg.MaxBatchBytes)
	require.Equal(t, 20*time.Millisecond, cfg.Linger)
	require.Equal(t, "s3cr3t", cfg.SASLPassword.String())
}

func TestConfig_SeedBrokersFlagSplitsOnComma(t *testing.T) {
	var cfg brokerclient.Config
	fs := flag.NewFlagSet("test", flag.PanicOnError)
	cfg.RegisterFlagsWithPrefix("", fs)

	require.NoError(t, fs.Parse([]string{"-seed-brokers=broker-a:9092,broker-b:9092"}))
	require.Equal(t, []string{"broker-a:9092", "broker-b:9092"}, cfg.SeedBrokers)
}

func TestConfig_DefaultValuesHelper(t *testing.T) {
	// Mirrors pkg/ingest/partition_offset_client_test.go's
	// createTestKafkaConfig, which relies on flagext.DefaultValues to apply
	// defaults without the caller building its own throwaway FlagSet.
	var cfg brokerclient.Config
	flagext.DefaultValues(&cfg)

	require.Equal(t, 1<<20, cfg.MaxBatchBytes)
}
