package brokerclient

import (
	"flag"
	"strings"
	"time"

	"github.com/grafana/dskit/flagext"
)

// Config collects every flag the package needs. It follows the same
// two-method convention pkg/ingest's KafkaConfig uses: RegisterFlags(f)
// satisfies flagext.Registerer (so flagext.DefaultValues works in tests,
// the way partition_offset_client_test.go's createTestKafkaConfig calls
// it), and RegisterFlagsWithPrefix does the real work so callers embedding
// Config inside a larger app config can namespace its flags.
type Config struct {
	SeedBrokers []string `yaml:"seed_brokers"`

	DialTimeout time.Duration `yaml:"dial_timeout"`

	// SASLUsername and SASLPassword configure PLAIN SASL auth against the
	// seed brokers, if set. SASLPassword uses flagext.Secret so its value is
	// redacted from YAML marshaling and flag usage output, the same
	// protection grafana-tempo gives every credential-shaped config field.
	SASLUsername string         `yaml:"sasl_username"`
	SASLPassword flagext.Secret `yaml:"sasl_password"`

	MaxBatchBytes int           `yaml:"max_batch_bytes"`
	Linger        time.Duration `yaml:"linger"`

	Backoff BackoffConfig `yaml:"backoff"`
}

// RegisterFlags implements flagext.Registerer by registering every flag with
// no prefix.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", f)
}

// RegisterFlagsWithPrefix registers the config's flags under prefix and
// fills every field with its default value first.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	*cfg = Config{
		DialTimeout:   10 * time.Second,
		MaxBatchBytes: 1 << 20,
		Linger:        5 * time.Millisecond,
		Backoff:       DefaultBackoffConfig,
	}

	if prefix != "" {
		prefix += "."
	}

	f.Func(prefix+"seed-brokers", "Comma-separated list of seed broker addresses.", func(s string) error {
		cfg.SeedBrokers = strings.Split(s, ",")
		return nil
	})
	f.DurationVar(&cfg.DialTimeout, prefix+"dial-timeout", cfg.DialTimeout, "Timeout for dialing a seed broker.")
	f.StringVar(&cfg.SASLUsername, prefix+"sasl-username", "", "Username for SASL/PLAIN auth against the seed brokers. Leave empty to disable SASL.")
	f.Var(&cfg.SASLPassword, prefix+"sasl-password", "Password for SASL/PLAIN auth against the seed brokers.")
	f.IntVar(&cfg.MaxBatchBytes, prefix+"max-batch-bytes", cfg.MaxBatchBytes, "Maximum approximate size in bytes of one produce batch.")
	f.DurationVar(&cfg.Linger, prefix+"linger", cfg.Linger, "Maximum time to wait for a batch to fill before flushing it anyway.")
	f.DurationVar(&cfg.Backoff.Initial, prefix+"backoff.initial", cfg.Backoff.Initial, "Initial retry backoff.")
	f.DurationVar(&cfg.Backoff.Max, prefix+"backoff.max", cfg.Backoff.Max, "Maximum retry backoff.")
	f.DurationVar(&cfg.Backoff.Deadline, prefix+"backoff.deadline", cfg.Backoff.Deadline, "Deadline after which a retry loop gives up.")
}
