package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/mrlokans/bookshelf/internal/covers"
	"github.com/mrlokans/bookshelf/internal/goodreads"
)

type (
	Config struct {
		Sources
		Output
		Database
		HTTP
		Covers
		RefreshSchedule string // Cron format, "" disables nextUpdate
	}

	Sources struct {
		CSVPath string
		FeedURL string
	}
	Output struct {
		Path string
	}
	Database struct {
		Path string // "" disables the SQLite mirror
	}
	HTTP struct {
		Timeout        time.Duration
		FeedMaxRetries int
		UserAgent      string
	}
	Covers struct {
		Delay   time.Duration
		BaseURL string
	}
)

// NewViper returns a viper instance with defaults set and BOOKSHELF_*
// environment variables bound.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetDefault(KeyCSVPath, DefaultCSVPath)
	v.SetDefault(KeyFeedURL, "")
	v.SetDefault(KeyOutputPath, DefaultOutputPath)
	v.SetDefault(KeyDatabasePath, "")
	v.SetDefault(KeyRefreshSchedule, "")
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyFeedMaxRetries, DefaultFeedMaxRetries)
	v.SetDefault(KeyCoverDelay, covers.DefaultDelay)
	v.SetDefault(KeyCoverBaseURL, goodreads.DefaultBaseURL)
	v.SetDefault(KeyUserAgent, goodreads.DefaultUserAgent)
	return v
}

// Load reads the optional config file into v and resolves the final Config.
// Precedence is flags bound to v, then environment, then file, then defaults.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
			}
		}
	}

	cfg := fromViper(v)
	// Non-positive values would disable retries or the cover rate limit.
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = DefaultHTTPTimeout
	}
	if cfg.HTTP.FeedMaxRetries <= 0 {
		cfg.HTTP.FeedMaxRetries = DefaultFeedMaxRetries
	}
	if cfg.Covers.Delay <= 0 {
		cfg.Covers.Delay = covers.DefaultDelay
	}
	return cfg, nil
}

// NewConfig resolves configuration from defaults and the environment only.
func NewConfig() *Config {
	return fromViper(NewViper())
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Sources: Sources{
			CSVPath: v.GetString(KeyCSVPath),
			FeedURL: v.GetString(KeyFeedURL),
		},
		Output: Output{
			Path: v.GetString(KeyOutputPath),
		},
		Database: Database{
			Path: v.GetString(KeyDatabasePath),
		},
		HTTP: HTTP{
			Timeout:        v.GetDuration(KeyHTTPTimeout),
			FeedMaxRetries: v.GetInt(KeyFeedMaxRetries),
			UserAgent:      v.GetString(KeyUserAgent),
		},
		Covers: Covers{
			Delay:   v.GetDuration(KeyCoverDelay),
			BaseURL: v.GetString(KeyCoverBaseURL),
		},
		RefreshSchedule: v.GetString(KeyRefreshSchedule),
	}
}
