// Package config loads the eushield service configuration from defaults,
// an optional YAML file and EUSHIELD_ environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/mcuadros/go-defaults"
)

const (
	// envPrefix is the prefix of environment overrides, e.g. EUSHIELD_SERVER_LISTEN
	envPrefix = "EUSHIELD_"
	// delimiter separates nested keys
	delimiter = "."
)

// Prober engines
const (
	EngineHTTPSling = "httpsling"
	EngineHTTPX     = "httpx"
)

// Config holds service configuration
type Config struct {
	// Server contains the HTTP listener settings
	Server Server `json:"server" koanf:"server"`
	// Prober contains the well-known path probing settings
	Prober Prober `json:"prober" koanf:"prober"`
	// Cache contains the result cache settings
	Cache Cache `json:"cache" koanf:"cache"`
	// Slack contains the optional notification settings
	Slack Slack `json:"slack" koanf:"slack"`
}

// Server holds HTTP server settings
type Server struct {
	// Listen is the address the API server binds to
	Listen string `json:"listen" koanf:"listen" default:":8080"`
	// Debug enables debug logging
	Debug bool `json:"debug" koanf:"debug" default:"false"`
	// Pretty enables human readable log output
	Pretty bool `json:"pretty" koanf:"pretty" default:"false"`
	// ReadTimeout is the maximum duration for reading a request
	ReadTimeout time.Duration `json:"readtimeout" koanf:"readtimeout" default:"30s"`
	// WriteTimeout is the maximum duration before timing out a response write
	WriteTimeout time.Duration `json:"writetimeout" koanf:"writetimeout" default:"60s"`
	// ShutdownGracePeriod is how long in-flight requests get on shutdown
	ShutdownGracePeriod time.Duration `json:"shutdowngraceperiod" koanf:"shutdowngraceperiod" default:"10s"`
	// MaxBodySize bounds request bodies in bytes; rendered page html is accepted so this is generous
	MaxBodySize int64 `json:"maxbodysize" koanf:"maxbodysize" default:"2097152"`
	// AnalyzeTimeout bounds one full analysis including probing
	AnalyzeTimeout time.Duration `json:"analyzetimeout" koanf:"analyzetimeout" default:"30s"`
}

// Prober holds site probing settings
type Prober struct {
	// Engine selects the http client used for probing (httpsling or httpx)
	Engine string `json:"engine" koanf:"engine" default:"httpsling"`
	// Timeout is the per-path probe deadline
	Timeout time.Duration `json:"timeout" koanf:"timeout" default:"3s"`
	// Threads is the number of concurrent probes
	Threads int `json:"threads" koanf:"threads" default:"8"`
	// MaxBodySize bounds how many bytes of a probed page are read
	MaxBodySize int64 `json:"maxbodysize" koanf:"maxbodysize" default:"1048576"`
}

// Cache holds result cache settings
type Cache struct {
	// Backend is one of memory, sqlite or redis
	Backend string `json:"backend" koanf:"backend" default:"memory"`
	// TTL is how long a cached result stays fresh
	TTL time.Duration `json:"ttl" koanf:"ttl" default:"168h"`
	// PurgeSchedule is the cron spec of the expired entry sweep for memory and sqlite
	PurgeSchedule string `json:"purgeschedule" koanf:"purgeschedule" default:"@hourly"`
	// SQLitePath is the database file used by the sqlite backend
	SQLitePath string `json:"sqlitepath" koanf:"sqlitepath" default:"./eushield.db"`
	// RedisAddr is the host:port of the redis backend
	RedisAddr string `json:"redisaddr" koanf:"redisaddr" default:"localhost:6379"`
	// RedisPassword authenticates against redis
	RedisPassword string `json:"redispassword" koanf:"redispassword" sensitive:"true"`
	// RedisDB selects the redis database
	RedisDB int `json:"redisdb" koanf:"redisdb" default:"0"`
}

// Slack holds notification settings
type Slack struct {
	// WebhookURL enables analysis notifications when set
	WebhookURL string `json:"webhookurl" koanf:"webhookurl" sensitive:"true"`
	// Username is the display name of posted messages
	Username string `json:"username" koanf:"username" default:"EUShield"`
	// RequestTimeout bounds each webhook request
	RequestTimeout time.Duration `json:"requesttimeout" koanf:"requesttimeout" default:"10s"`
}

// Load builds the configuration from struct defaults, then the YAML file at
// cfgFile when it exists, then EUSHIELD_ environment variables
func Load(cfgFile *string) (*Config, error) {
	k := koanf.New(delimiter)

	conf := &Config{}
	defaults.SetDefaults(conf)

	if cfgFile != nil && *cfgFile != "" {
		if err := loadFile(k, *cfgFile); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, delimiter, envKey), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	if err := k.UnmarshalWithConf("", conf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfigUnmarshal, err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

// loadFile merges the YAML file into k; a missing file is not an error
func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("%w: %w", ErrConfigLoad, err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConfigLoad, path, err)
	}

	return nil
}

// envKey maps EUSHIELD_PROBER_TIMEOUT to prober.timeout
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", delimiter)
}

// Validate checks values the loaders cannot
func (c *Config) Validate() error {
	switch c.Prober.Engine {
	case EngineHTTPSling, EngineHTTPX:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidProberEngine, c.Prober.Engine)
	}

	if c.Prober.Timeout <= 0 {
		return fmt.Errorf("%w: prober.timeout must be positive", ErrInvalidValue)
	}

	if c.Prober.Threads <= 0 {
		return fmt.Errorf("%w: prober.threads must be positive", ErrInvalidValue)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache.ttl must be positive", ErrInvalidValue)
	}

	return nil
}
