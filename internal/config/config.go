package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "jobby/internal/errors"
	"jobby/internal/skills"
)

// Source names as they appear in configuration and on postings.
const (
	SourceLinkedIn = "linkedin"
	SourceRemoteOK = "remoteok"
	SourceRSS      = "rss_feed"
)

type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Match     MatchConfig     `mapstructure:"match"`
	Skills    SkillsConfig    `mapstructure:"skills"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type SourcesConfig struct {
	Enabled  []string       `mapstructure:"enabled"`
	LinkedIn LinkedInConfig `mapstructure:"linkedin"`
	RemoteOK RemoteOKConfig `mapstructure:"remoteok"`
	RSS      RSSConfig      `mapstructure:"rss"`
}

type LinkedInConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	RateDelay time.Duration `mapstructure:"rate_delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Limit     int           `mapstructure:"limit"`
}

type RemoteOKConfig struct {
	APIURL    string        `mapstructure:"api_url"`
	SiteURL   string        `mapstructure:"site_url"`
	RateDelay time.Duration `mapstructure:"rate_delay"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Limit     int           `mapstructure:"limit"`
}

type RSSConfig struct {
	FeedURLs     []string      `mapstructure:"feed_urls"`
	RateDelay    time.Duration `mapstructure:"rate_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
	LimitPerFeed int           `mapstructure:"limit_per_feed"`
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Driver     string           `mapstructure:"driver"`
	ClickHouse ClickHouseConfig `mapstructure:"clickhouse"`
}

type ClickHouseConfig struct {
	Addr            string        `mapstructure:"addr"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type NATSConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	URL         string        `mapstructure:"url"`
	ConnTimeout time.Duration `mapstructure:"conn_timeout"`
}

type TelemetryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Keywords []string      `mapstructure:"keywords"`
	Location string        `mapstructure:"location"`
	Limit    int           `mapstructure:"limit"`
}

type MatchConfig struct {
	SkillWeight      float64 `mapstructure:"skill_weight"`
	ExperienceWeight float64 `mapstructure:"experience_weight"`
	LocationWeight   float64 `mapstructure:"location_weight"`
	SalaryWeight     float64 `mapstructure:"salary_weight"`
	BRLDivisor       float64 `mapstructure:"brl_divisor"`
}

type SkillsConfig struct {
	ExtraTaxonomy []string `mapstructure:"extra_taxonomy"`
}

// Load reads configuration from the ambient viper instance (config file plus
// JOBBY_* environment variables) and validates it. Invalid configuration is
// a hard startup failure.
func Load() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("JOBBY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, apperrors.InvalidConfig("unmarshaling configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("http.addr", ":8000")

	viper.SetDefault("sources.enabled", []string{SourceLinkedIn, SourceRemoteOK, SourceRSS})
	viper.SetDefault("sources.linkedin.base_url", "https://www.linkedin.com")
	viper.SetDefault("sources.linkedin.rate_delay", 2*time.Second)
	viper.SetDefault("sources.linkedin.timeout", 10*time.Second)
	viper.SetDefault("sources.linkedin.limit", 25)
	viper.SetDefault("sources.remoteok.api_url", "https://remoteok.io/api")
	viper.SetDefault("sources.remoteok.site_url", "https://remoteok.io")
	viper.SetDefault("sources.remoteok.rate_delay", time.Second)
	viper.SetDefault("sources.remoteok.timeout", 10*time.Second)
	viper.SetDefault("sources.remoteok.limit", 50)
	viper.SetDefault("sources.rss.feed_urls", []string{})
	viper.SetDefault("sources.rss.rate_delay", 500*time.Millisecond)
	viper.SetDefault("sources.rss.timeout", 10*time.Second)
	viper.SetDefault("sources.rss.limit_per_feed", 10)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.redis_addr", "localhost:6379")
	viper.SetDefault("cache.redis_db", 0)
	viper.SetDefault("cache.ttl", 5*time.Minute)

	viper.SetDefault("store.driver", "memory")
	viper.SetDefault("store.clickhouse.addr", "localhost:9000")
	viper.SetDefault("store.clickhouse.database", "jobby")
	viper.SetDefault("store.clickhouse.username", "default")
	viper.SetDefault("store.clickhouse.max_open_conns", 10)
	viper.SetDefault("store.clickhouse.max_idle_conns", 5)
	viper.SetDefault("store.clickhouse.conn_max_lifetime", time.Hour)

	viper.SetDefault("nats.enabled", false)
	viper.SetDefault("nats.url", "nats://localhost:4222")
	viper.SetDefault("nats.conn_timeout", 10*time.Second)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.endpoint", "localhost:4317")

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.interval", 30*time.Minute)
	viper.SetDefault("scheduler.limit", 50)

	viper.SetDefault("match.skill_weight", 0.40)
	viper.SetDefault("match.experience_weight", 0.25)
	viper.SetDefault("match.location_weight", 0.20)
	viper.SetDefault("match.salary_weight", 0.15)
	viper.SetDefault("match.brl_divisor", 5.0)
}

func (c *Config) Validate() error {
	known := map[string]bool{
		SourceLinkedIn: true,
		SourceRemoteOK: true,
		SourceRSS:      true,
	}
	for _, name := range c.Sources.Enabled {
		if !known[name] {
			return apperrors.InvalidConfig(fmt.Sprintf("unknown source %q", name), nil)
		}
	}

	sum := c.Match.SkillWeight + c.Match.ExperienceWeight + c.Match.LocationWeight + c.Match.SalaryWeight
	if math.Abs(sum-1.0) > 1e-9 {
		return apperrors.InvalidConfig(fmt.Sprintf("match weights must sum to 1.0, got %v", sum), nil)
	}

	for name, d := range map[string]time.Duration{
		"sources.linkedin.rate_delay": c.Sources.LinkedIn.RateDelay,
		"sources.remoteok.rate_delay": c.Sources.RemoteOK.RateDelay,
		"sources.rss.rate_delay":      c.Sources.RSS.RateDelay,
	} {
		if d < 0 {
			return apperrors.InvalidConfig(fmt.Sprintf("%s must not be negative", name), nil)
		}
	}

	if c.Store.Driver != "memory" && c.Store.Driver != "clickhouse" {
		return apperrors.InvalidConfig(fmt.Sprintf("unknown store driver %q", c.Store.Driver), nil)
	}

	if c.Match.BRLDivisor <= 0 {
		return apperrors.InvalidConfig("match.brl_divisor must be positive", nil)
	}

	return nil
}

// Taxonomy is the active skill taxonomy: the built-in names plus configured
// extras, first occurrence winning on duplicates.
func (c *Config) Taxonomy() []string {
	base := skills.DefaultTaxonomy()
	seen := make(map[string]bool, len(base))
	for _, name := range base {
		seen[strings.ToLower(name)] = true
	}
	for _, name := range c.Skills.ExtraTaxonomy {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true
		base = append(base, name)
	}
	return base
}
