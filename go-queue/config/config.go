// Package config loads dcqueue settings from defaults, an optional config
// file and DCQUEUE_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Charana123/dcqueue/go-queue/hash"
	"github.com/Charana123/dcqueue/go-queue/logging"
	"github.com/Charana123/dcqueue/go-queue/queue"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const ENV_PREFIX = "DCQUEUE"

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	PFS     PFSConfig     `mapstructure:"pfs"`
	Bloom   BloomConfig   `mapstructure:"bloom"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type PFSConfig struct {
	MinSize           int64 `mapstructure:"min_size"`
	MaxResults        int   `mapstructure:"max_results"`
	MaxPendingQueries int   `mapstructure:"max_pending_queries"`
}

type BloomConfig struct {
	// bits of the TTH used per hash position
	H int `mapstructure:"h"`
	// 0 derives k from the item count
	K int `mapstructure:"k"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("pfs.min_size", 20*1024*1024)
	v.SetDefault("pfs.max_results", 10)
	v.SetDefault("pfs.max_pending_queries", 10)
	v.SetDefault("bloom.h", 24)
	v.SetDefault("bloom.k", 0)
	v.SetDefault("metrics.addr", ":9190")
}

// Load reads the settings. An empty path skips the config file; a named file
// that cannot be read is an error.
func Load(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.PFS.MinSize < 0 {
		return fmt.Errorf("%w: pfs.min_size %d is negative", ErrInvalid, c.PFS.MinSize)
	}
	if c.PFS.MaxResults <= 0 {
		return fmt.Errorf("%w: pfs.max_results must be positive", ErrInvalid)
	}
	if c.PFS.MaxPendingQueries <= 0 {
		return fmt.Errorf("%w: pfs.max_pending_queries must be positive", ErrInvalid)
	}
	if c.Bloom.H < 1 || c.Bloom.H > 64 {
		return fmt.Errorf("%w: bloom.h %d outside 1..64", ErrInvalid, c.Bloom.H)
	}
	if c.Bloom.K < 0 || c.Bloom.K*c.Bloom.H > hash.TTH_BITS {
		return fmt.Errorf("%w: bloom.k %d with h %d exceeds %d hash bits",
			ErrInvalid, c.Bloom.K, c.Bloom.H, hash.TTH_BITS)
	}
	return nil
}

// Apply pushes the partial sharing limits into the queue package.
func (c *Config) Apply() {
	queue.PARTIAL_SHARE_MIN_SIZE = c.PFS.MinSize
	queue.MAX_PFS_SOURCES = c.PFS.MaxResults
	queue.MAX_PENDING_QUERIES = c.PFS.MaxPendingQueries
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		OutputPath: c.Log.Output,
	}
}
