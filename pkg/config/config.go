package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	Storefront StorefrontConfig
	Upstream   UpstreamConfig
	Views      ViewsConfig
	Redis      RedisConfig
	CartLimit  CartRateLimitConfig
	GCP        GCPConfig
	PubSub     PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string   `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	LogFormat    string   `envconfig:"STOREFRONT_LOG_FORMAT" default:"json"`
	CORSOrigins  []string `envconfig:"STOREFRONT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// StorefrontConfig holds presentation knobs of the catalog engine.
type StorefrontConfig struct {
	Locale        string        `envconfig:"STOREFRONT_LOCALE" default:"vi"`
	Currency      string        `envconfig:"STOREFRONT_CURRENCY" default:"VND"`
	FeedbackDelay time.Duration `envconfig:"STOREFRONT_CART_FEEDBACK_DELAY" default:"2500ms"`
	FallbackImage string        `envconfig:"STOREFRONT_FALLBACK_IMAGE"`
	ListingPath   string        `envconfig:"STOREFRONT_LISTING_PATH" default:"/products"`
}

type UpstreamConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_UPSTREAM_URL" required:"true"`
	Timeout time.Duration `envconfig:"STOREFRONT_UPSTREAM_TIMEOUT" default:"8s"`
}

func (u *UpstreamConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(u.BaseURL))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvUpstreamURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvUpstreamURL)
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvUpstreamTimeout)
	}
	return nil
}

type ViewsConfig struct {
	IdleTTL       time.Duration `envconfig:"STOREFRONT_VIEW_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"STOREFRONT_VIEW_SWEEP_INTERVAL" default:"1m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type CartRateLimitConfig struct {
	Window    time.Duration `envconfig:"STOREFRONT_CART_RATE_LIMIT_WINDOW" default:"1m"`
	IPLimit   int           `envconfig:"STOREFRONT_CART_RATE_LIMIT_IP_LIMIT" default:"30"`
	ViewLimit int           `envconfig:"STOREFRONT_CART_RATE_LIMIT_VIEW_LIMIT" default:"10"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	CartTopic   string        `envconfig:"STOREFRONT_PUBSUB_CART_TOPIC"`
	OrderByView bool          `envconfig:"STOREFRONT_PUBSUB_ORDER_BY_VIEW" default:"true"`
	BatchDelay  time.Duration `envconfig:"STOREFRONT_PUBSUB_BATCH_DELAY" default:"10ms"`
	BatchCount  int           `envconfig:"STOREFRONT_PUBSUB_BATCH_COUNT" default:"100"`
}

// Enabled reports whether cart notifications should go to Pub/Sub.
func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.CartTopic) != ""
}
