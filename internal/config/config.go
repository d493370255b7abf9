package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Cron      CronConfig      `mapstructure:"cron"`
	Steam     SteamConfig     `mapstructure:"steam"`
	PriceSync PriceSyncConfig `mapstructure:"price_sync"`
	Toplist   ToplistConfig   `mapstructure:"toplist"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	PriceSync string `mapstructure:"price_sync"`
	Toplist   string `mapstructure:"toplist"`
}

type SteamConfig struct {
	StoreBaseURL string        `mapstructure:"store_base_url"`
	SearchURL    string        `mapstructure:"search_url"`
	CountryCode  string        `mapstructure:"country_code"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

type PriceSyncConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	BatchSize     int           `mapstructure:"batch_size"`
	SleepPerGame  time.Duration `mapstructure:"sleep_per_game"`
	Resume        bool          `mapstructure:"resume"`
	MaxConsecFail int           `mapstructure:"max_consec_fail"`
}

type ToplistConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	Pages         int  `mapstructure:"pages"`
	FreeCacheSize int  `mapstructure:"free_cache_size"`
}

type CatalogConfig struct {
	PageSize      int `mapstructure:"page_size"`
	MaxPageSize   int `mapstructure:"max_page_size"`
	LowWindowDays int `mapstructure:"low_window_days"`
	ForecastSpan  int `mapstructure:"forecast_span"`
}

type AuthConfig struct {
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
	BcryptCost  int           `mapstructure:"bcrypt_cost"`
	MinPassword int           `mapstructure:"min_password"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("ST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.price_sync", "@every 6h")
	v.SetDefault("cron.toplist", "@every 24h")
	v.SetDefault("steam.store_base_url", "https://store.steampowered.com/api")
	v.SetDefault("steam.search_url", "https://store.steampowered.com/search/")
	v.SetDefault("steam.country_code", "us")
	v.SetDefault("steam.timeout", "15s")
	v.SetDefault("steam.max_retries", 3)
	v.SetDefault("steam.retry_backoff", "2s")
	v.SetDefault("price_sync.enabled", true)
	v.SetDefault("price_sync.batch_size", 50)
	v.SetDefault("price_sync.sleep_per_game", "1500ms")
	v.SetDefault("price_sync.resume", true)
	v.SetDefault("price_sync.max_consec_fail", 10)
	v.SetDefault("toplist.enabled", true)
	v.SetDefault("toplist.pages", 2)
	v.SetDefault("toplist.free_cache_size", 1024)
	v.SetDefault("catalog.page_size", 24)
	v.SetDefault("catalog.max_page_size", 100)
	v.SetDefault("catalog.low_window_days", 90)
	v.SetDefault("catalog.forecast_span", 7)
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.min_password", 8)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
