// Package config provides configuration management for dashabr using Viper.
// It supports configuration from files, environment variables, and flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultSegmentDuration  = 2 * time.Second
	defaultBufferSize       = 30
	defaultInitialBuffer    = 2
	defaultThroughputWindow = 5
	defaultSampleInterval   = 100 * time.Millisecond
	defaultMaxParallel      = 1
	defaultHTTPTimeout      = 30 * time.Second
	defaultRetryAttempts    = 3
	defaultRetryDelay       = 1 * time.Second
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = 30 * time.Second
	defaultPEPListenPort    = 8888
	defaultPEPTargetPort    = 443
	defaultSARAWindow       = 5
	defaultSARASafety       = 0.9
	defaultReservoir        = 0.375
	defaultCushion          = 0.9
	defaultInitialFactor    = 0.875
)

// Config holds all configuration for a dashabr session.
type Config struct {
	Playback PlaybackConfig `mapstructure:"playback"`
	Buffer   BufferConfig   `mapstructure:"buffer"`
	ABR      ABRConfig      `mapstructure:"abr"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	PEP      PEPConfig      `mapstructure:"pep"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Store    StoreConfig    `mapstructure:"store"`
	Status   StatusConfig   `mapstructure:"status"`
}

// PlaybackConfig holds manifest and segment-walk settings.
type PlaybackConfig struct {
	ManifestURL     string        `mapstructure:"manifest_url"`
	SegmentDuration time.Duration `mapstructure:"segment_duration"`
	KeepSegments    bool          `mapstructure:"keep_segments"`
	OutputDir       string        `mapstructure:"output_dir"`
}

// BufferConfig holds playback buffer sizing.
type BufferConfig struct {
	Size         int `mapstructure:"size"`
	InitialFill  int `mapstructure:"initial_fill"`
	ThroughputW  int `mapstructure:"throughput_window"`
}

// ABRConfig holds adaptive bitrate strategy selection and tuning.
type ABRConfig struct {
	Strategy        string  `mapstructure:"strategy"` // basic, sara, netflix
	SARAWindow      int     `mapstructure:"sara_window"`
	SARASafety      float64 `mapstructure:"sara_safety"`
	NetflixReservoir float64 `mapstructure:"netflix_reservoir"`
	NetflixCushion   float64 `mapstructure:"netflix_cushion"`
	NetflixInitialFactor float64 `mapstructure:"netflix_initial_factor"`
	ParallelDwnRate int     `mapstructure:"parallel_dwn_rate"` // Kbps override, 0 = unset
	MaxParallel     int     `mapstructure:"max_parallel"`
}

// HTTPConfig holds resilient HTTP client tuning shared by manifest and segment fetches.
type HTTPConfig struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	CircuitThreshold int           `mapstructure:"circuit_threshold"`
	CircuitTimeout   time.Duration `mapstructure:"circuit_timeout"`
	MaxResponseSize  ByteSize      `mapstructure:"max_response_size"`
	SampleInterval   time.Duration `mapstructure:"sample_interval"`
}

// PEPConfig holds performance-enhancing-proxy tunnel settings.
type PEPConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenHost string `mapstructure:"listen_host"`
	ListenPort int    `mapstructure:"listen_port"`
	TargetHost string `mapstructure:"target_host"`
	TargetPort int    `mapstructure:"target_port"`
	MaxConns   int    `mapstructure:"max_conns"` // 0 = unlimited
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// StoreConfig holds session-history persistence settings.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// StatusConfig holds the optional live status HTTP endpoint.
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with DASHABR_ and use underscores for nesting.
// Example: DASHABR_ABR_STRATEGY=netflix.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dashabr")
		v.AddConfigPath("/etc/dashabr")
	}

	v.SetEnvPrefix("DASHABR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("playback.segment_duration", defaultSegmentDuration)
	v.SetDefault("playback.keep_segments", false)
	v.SetDefault("playback.output_dir", "")

	v.SetDefault("buffer.size", defaultBufferSize)
	v.SetDefault("buffer.initial_fill", defaultInitialBuffer)
	v.SetDefault("buffer.throughput_window", defaultThroughputWindow)

	v.SetDefault("abr.strategy", "sara")
	v.SetDefault("abr.sara_window", defaultSARAWindow)
	v.SetDefault("abr.sara_safety", defaultSARASafety)
	v.SetDefault("abr.netflix_reservoir", defaultReservoir)
	v.SetDefault("abr.netflix_cushion", defaultCushion)
	v.SetDefault("abr.netflix_initial_factor", defaultInitialFactor)
	v.SetDefault("abr.parallel_dwn_rate", 0)
	v.SetDefault("abr.max_parallel", defaultMaxParallel)

	v.SetDefault("http.timeout", defaultHTTPTimeout)
	v.SetDefault("http.retry_attempts", defaultRetryAttempts)
	v.SetDefault("http.retry_delay", defaultRetryDelay)
	v.SetDefault("http.circuit_threshold", defaultCircuitThreshold)
	v.SetDefault("http.circuit_timeout", defaultCircuitTimeout)
	v.SetDefault("http.max_response_size", 0)
	v.SetDefault("http.sample_interval", defaultSampleInterval)

	v.SetDefault("pep.enabled", false)
	v.SetDefault("pep.listen_host", "0.0.0.0")
	v.SetDefault("pep.listen_port", defaultPEPListenPort)
	v.SetDefault("pep.target_port", defaultPEPTargetPort)
	v.SetDefault("pep.max_conns", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("store.enabled", false)
	v.SetDefault("store.dsn", "")

	v.SetDefault("status.enabled", false)
	v.SetDefault("status.addr", "127.0.0.1:9191")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	validStrategies := map[string]bool{"basic": true, "sara": true, "netflix": true}
	if !validStrategies[c.ABR.Strategy] {
		return fmt.Errorf("abr.strategy must be one of: basic, sara, netflix")
	}

	if c.Buffer.Size < 1 {
		return fmt.Errorf("buffer.size must be at least 1")
	}
	if c.Buffer.InitialFill < 0 || c.Buffer.InitialFill > c.Buffer.Size {
		return fmt.Errorf("buffer.initial_fill must be between 0 and buffer.size")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.ABR.MaxParallel < 1 {
		return fmt.Errorf("abr.max_parallel must be at least 1")
	}

	return nil
}
