package kafka

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ClientID is sent to the brokers by every driver.
const ClientID = "streamline"

const (
	DefaultAutoOffsetReset  = "largest"
	DefaultSessionTimeoutMS = 10000
)

// EnvPrefix selects environment overrides, e.g. STREAMLINE_KAFKA_GROUP_ID.
const EnvPrefix = "STREAMLINE_KAFKA_"

type OffsetReset string

const (
	ResetEarliest OffsetReset = "earliest"
	ResetLatest   OffsetReset = "latest"
)

type Config struct {
	BootstrapServers string   `koanf:"bootstrap_servers"`
	Topics           []string `koanf:"topics"`
	GroupID          string   `koanf:"group_id"`
	AutoOffsetReset  string   `koanf:"auto_offset_reset"`
	SessionTimeoutMS int      `koanf:"session_timeout_ms"`

	// HostKey is accepted for compatibility and not used by the source.
	HostKey string `koanf:"host_key"`
	// KeyField names the event field that receives the message key.
	KeyField string `koanf:"key_field"`
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

// LoadConfig merges YAML (if present) with env-vars prefixed EnvPrefix.
// Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil &&
			!errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	// schema version check (only when YAML is present)
	sv := k.String("schema_version")
	if sv != "" && sv != "v1" {
		return Config{}, fmt.Errorf("kafka schema_version %q not supported (want v1)", sv)
	}
	k.Delete("schema_version")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &cfg,
		},
	})
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envValue(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if key == "topics" {
		return key, splitList(value)
	}
	return key, value
}

// ---------------------------------------------------------------------------
// defaults & validation
// ---------------------------------------------------------------------------

func (c Config) withDefaults() Config {
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = DefaultAutoOffsetReset
	}
	if c.SessionTimeoutMS == 0 {
		c.SessionTimeoutMS = DefaultSessionTimeoutMS
	}
	return c
}

// Validate checks required fields. The offset-reset value is checked by
// ResetPolicy when the consumer is created.
func (c Config) Validate() error {
	switch {
	case len(c.Brokers()) == 0:
		return fmt.Errorf("%w: bootstrap_servers is required", ErrInvalidConfig)
	case len(c.Topics) == 0:
		return fmt.Errorf("%w: topics must not be empty", ErrInvalidConfig)
	case c.GroupID == "":
		return fmt.Errorf("%w: group_id is required", ErrInvalidConfig)
	case c.SessionTimeoutMS < 0:
		return fmt.Errorf("%w: session_timeout_ms must be positive", ErrInvalidConfig)
	}
	return nil
}

// Brokers splits bootstrap_servers on commas.
func (c Config) Brokers() []string { return splitList(c.BootstrapServers) }

func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMS) * time.Millisecond
}

// ResetPolicy maps auto_offset_reset, including the librdkafka aliases, onto
// earliest or latest.
func (c Config) ResetPolicy() (OffsetReset, error) {
	switch strings.ToLower(strings.TrimSpace(c.AutoOffsetReset)) {
	case "smallest", "earliest", "beginning":
		return ResetEarliest, nil
	case "largest", "latest", "end", "":
		return ResetLatest, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOffsetReset, c.AutoOffsetReset)
	}
}

// legal Kafka topic names
var topicName = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,249}$`)

func validateTopics(topics []string) error {
	if len(topics) == 0 {
		return errors.New("no topics")
	}
	for _, t := range topics {
		if !topicName.MatchString(t) || t == "." || t == ".." {
			return fmt.Errorf("illegal topic name %q", t)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
