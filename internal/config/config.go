package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/Armin-kho/gold-live-rates/internal/utils"
)

const envPrefix = "GLR"

type Config struct {
	DataDir  string `mapstructure:"data_dir"`
	LogLevel string `mapstructure:"log_level"`
	// Variant is "live" or "classic".
	Variant string `mapstructure:"variant"`
	// Digits "hi" renders Devanagari numerals.
	Digits   string         `mapstructure:"digits"`
	Display  DisplayConfig  `mapstructure:"display"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Feed     FeedConfig     `mapstructure:"feed"`
	FX       FXConfig       `mapstructure:"fx"`
	Store    StoreConfig    `mapstructure:"store"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type DisplayConfig struct {
	ShopName   string `mapstructure:"shop_name"`
	Logo       string `mapstructure:"logo"`
	ShopImage  string `mapstructure:"shop_image"`
	Salutation string `mapstructure:"salutation"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type FeedConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Label overrides are regular expressions; empty keeps the built-in ones.
	GoldLabel   string `mapstructure:"gold_label"`
	SilverLabel string `mapstructure:"silver_label"`
	SpotLabel   string `mapstructure:"spot_label"`
}

type FXEndpoint struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
	Path string `mapstructure:"path"`
}

type FXConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	Endpoints []FXEndpoint  `mapstructure:"endpoints"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type StoreConfig struct {
	// Driver is "sqlite", "redis" or "memory".
	Driver string      `mapstructure:"driver"`
	Path   string      `mapstructure:"path"`
	Redis  RedisConfig `mapstructure:"redis"`
}

type BackupConfig struct {
	// Cron is a robfig/cron spec; empty disables scheduled backups.
	Cron string `mapstructure:"cron"`
	Dir  string `mapstructure:"dir"`
}

type TelegramConfig struct {
	Token          string        `mapstructure:"token"`
	ChannelID      int64         `mapstructure:"channel_id"`
	AdminIDs       []int64       `mapstructure:"admin_ids"`
	PostMode       string        `mapstructure:"post_mode"`
	ThresholdType  string        `mapstructure:"threshold_type"`
	ThresholdValue float64       `mapstructure:"threshold_value"`
	QuietStart     string        `mapstructure:"quiet_start"`
	QuietEnd       string        `mapstructure:"quiet_end"`
	MinInterval    time.Duration `mapstructure:"min_interval"`
	Debug          bool          `mapstructure:"debug"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "/var/lib/gold-live-rates")
	v.SetDefault("log_level", "info")
	v.SetDefault("variant", "live")
	v.SetDefault("digits", "")
	v.SetDefault("display.shop_name", "")
	v.SetDefault("display.logo", "")
	v.SetDefault("display.shop_image", "")
	v.SetDefault("display.salutation", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("feed.url", "")
	v.SetDefault("feed.timeout", "12s")
	v.SetDefault("feed.gold_label", "")
	v.SetDefault("feed.silver_label", "")
	v.SetDefault("feed.spot_label", "")
	v.SetDefault("fx.enabled", true)
	v.SetDefault("fx.interval", "10s")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.redis.addr", "127.0.0.1:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "goldlive:")
	v.SetDefault("backup.cron", "")
	v.SetDefault("backup.dir", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.channel_id", 0)
	v.SetDefault("telegram.admin_ids", []int64{})
	v.SetDefault("telegram.post_mode", "edit")
	v.SetDefault("telegram.threshold_type", "abs")
	v.SetDefault("telegram.threshold_value", 0)
	v.SetDefault("telegram.quiet_start", "")
	v.SetDefault("telegram.quiet_end", "")
	v.SetDefault("telegram.min_interval", "5s")
	v.SetDefault("telegram.debug", false)
}

// DefaultConfigPath honours GLR_CONFIG.
func DefaultConfigPath() string {
	if v := os.Getenv(envPrefix + "_CONFIG"); v != "" {
		return v
	}
	return "/etc/gold-live-rates/config.yaml"
}

// Load merges defaults, the optional config file (yaml/json/toml by extension), a .env file
// in the working directory and GLR_* environment variables, in increasing precedence.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
			}
		}
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.DataDir = filepath.Clean(c.DataDir)
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "goldlive.db")
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(c.DataDir, "backups")
	}
	c.Variant = strings.ToLower(strings.TrimSpace(c.Variant))
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
}

func validate(c *Config) error {
	var errs []error
	switch c.Variant {
	case "live", "classic":
	default:
		errs = append(errs, fmt.Errorf("variant must be live or classic, got %q", c.Variant))
	}
	switch c.Store.Driver {
	case "sqlite", "memory":
	case "redis":
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr is required"))
	}
	if c.FX.Enabled && c.FX.Interval <= 0 {
		errs = append(errs, errors.New("fx.interval must be positive"))
	}
	switch c.Telegram.PostMode {
	case "edit", "new":
	default:
		errs = append(errs, fmt.Errorf("telegram.post_mode must be edit or new, got %q", c.Telegram.PostMode))
	}
	switch c.Telegram.ThresholdType {
	case "abs", "pct":
	default:
		errs = append(errs, fmt.Errorf("telegram.threshold_type must be abs or pct, got %q", c.Telegram.ThresholdType))
	}
	for name, hhmm := range map[string]string{"quiet_start": c.Telegram.QuietStart, "quiet_end": c.Telegram.QuietEnd} {
		if hhmm == "" {
			continue
		}
		if _, ok := utils.ParseHHMM(hhmm); !ok {
			errs = append(errs, fmt.Errorf("telegram.%s must be HH:MM, got %q", name, hhmm))
		}
	}
	if c.Telegram.ChannelID != 0 && c.Telegram.Token == "" {
		errs = append(errs, errors.New("telegram.token is required when telegram.channel_id is set"))
	}
	return errors.Join(errs...)
}

// QuietHours returns the quiet window in minutes since midnight; (0, 0) when unset.
func (t TelegramConfig) QuietHours() (int, int) {
	start, ok1 := utils.ParseHHMM(t.QuietStart)
	end, ok2 := utils.ParseHHMM(t.QuietEnd)
	if !ok1 || !ok2 {
		return 0, 0
	}
	return start, end
}
