package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/reshetovitsme/tg-media-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

const OfficialBotAPIURL = "https://api.telegram.org"

type Config struct {
	TelegramBotToken string  `koanf:"telegram_bot_token"`
	TelegramAPIURL   string  `koanf:"telegram_api_url"`
	APIID            int     `koanf:"api_id"`
	APIHash          string  `koanf:"api_hash"`
	SessionPath      string  `koanf:"session_path"`
	OwnerID          int64   `koanf:"owner_id"`
	AllowedUsers     []int64 `koanf:"allowed_users"`
	StoragePath      string  `koanf:"storage_path"`
	DownloadDir      string  `koanf:"download_dir"`
	ThumbDir         string  `koanf:"thumb_dir"`
	LogFile          string  `koanf:"log_file"`
	HTTPPort         string  `koanf:"http_port"`
	BaseURL          string  `koanf:"base_url"`
	AppEnv           AppEnv  `koanf:"app_env"`

	FFprobePath      string        `koanf:"ffprobe_path"`
	FFmpegPath       string        `koanf:"ffmpeg_path"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
	BatchDelay       time.Duration `koanf:"batch_delay"`
	RangeDelay       time.Duration `koanf:"range_delay"`
	GroupConcurrency int           `koanf:"group_concurrency"`
	ShellTimeout     time.Duration `koanf:"shell_timeout"`
}

// UsesLocalBotAPI reports whether uploads go to a self-hosted Bot API server.
func (c *Config) UsesLocalBotAPI() bool {
	return strings.TrimRight(c.TelegramAPIURL, "/") != OfficialBotAPIURL
}

// Load reads the bot configuration and requires both the bot token and user API credentials.
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.TelegramBotToken == "" {
		return nil, errors.ErrMissingBotToken
	}
	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, errors.ErrMissingAPICreds
	}

	return cfg, nil
}

// LoadSession reads the configuration needed by the interactive login only.
func LoadSession() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	if cfg.APIID == 0 || cfg.APIHash == "" {
		return nil, errors.ErrMissingAPICreds
	}

	return cfg, nil
}

func load() (*Config, error) {
	k := koanf.New(".")

	// Try to load config file from various formats
	configFiles := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"config.toml",
	}

	configFile, found := lo.Find(configFiles, func(file string) bool {
		_, err := os.Stat(file)
		return err == nil
	})

	if found {
		var parser koanf.Parser
		ext := filepath.Ext(configFile)

		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		case ".toml":
			parser = toml.Parser()
		default:
			return nil, oops.Errorf("unsupported config file extension: %s", ext)
		}

		if err := k.Load(file.Provider(configFile), parser); err != nil {
			return nil, oops.With("config_file", configFile).Wrap(err)
		}
	}

	// Load environment variables (they override config file values)
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil); err != nil {
		return nil, oops.With("context", "loading environment variables").Wrap(err)
	}

	defaults := map[string]any{
		"telegram_api_url":  OfficialBotAPIURL,
		"storage_path":      "./data",
		"session_path":      "./data/session.json",
		"download_dir":      "./downloads",
		"thumb_dir":         "./data/thumbs",
		"log_file":          "./data/logs.txt",
		"http_port":         "8080",
		"app_env":           "production",
		"ffprobe_path":      "ffprobe",
		"ffmpeg_path":       "ffmpeg",
		"progress_interval": "5s",
		"batch_delay":       "3s",
		"range_delay":       "2s",
		"group_concurrency": 4,
		"shell_timeout":     "60s",
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}

	// allowed_users may be a CSV string from env; unmarshal the rest without it
	allowedUsers := k.Get("allowed_users")
	k.Delete("allowed_users")

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.With("context", "unmarshaling config").Wrap(err)
	}

	switch v := allowedUsers.(type) {
	case string:
		cfg.AllowedUsers = ParseAllowedUsers(v)
	case []interface{}:
		cfg.AllowedUsers = lo.FilterMap(v, func(item interface{}, _ int) (int64, bool) {
			switch val := item.(type) {
			case int64:
				return val, true
			case int:
				return int64(val), true
			case float64:
				return int64(val), true
			case string:
				ids := ParseAllowedUsers(val)
				return lo.FirstOr(ids, 0), len(ids) == 1
			default:
				return 0, false
			}
		})
	}

	if env, err := ParseAppEnv(k.String("app_env")); err == nil {
		cfg.AppEnv = env
	} else {
		cfg.AppEnv = AppEnvProduction
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.HTTPPort
	}

	return &cfg, nil
}

// ParseAllowedUsers parses comma-separated user IDs string into []int64
func ParseAllowedUsers(s string) []int64 {
	if s == "" {
		return []int64{}
	}
	parts := strings.Split(s, ",")
	return lo.FilterMap(parts, func(part string, _ int) (int64, bool) {
		part = strings.TrimSpace(part)
		if part == "" {
			return 0, false
		}
		var id int64
		if _, err := fmt.Sscanf(part, "%d", &id); err == nil {
			return id, true
		}
		return 0, false
	})
}
