package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		TopicEvents string   `koanf:"topic_events"`
	} `koanf:"kafka"`

	Payment struct {
		Default string `koanf:"default"`
		Paymob  struct {
			APIKey        string `koanf:"api_key"`
			IntegrationID int64  `koanf:"integration_id"`
			IframeID      string `koanf:"iframe_id"`
			MerchantID    string `koanf:"merchant_id"`
			HMACSecret    string `koanf:"hmac_secret"`
			BaseURL       string `koanf:"base_url"`
		} `koanf:"paymob"`
	} `koanf:"payment"`

	Fulfillment struct {
		BaseURL string `koanf:"base_url"`
		APIKey  string `koanf:"api_key"`
	} `koanf:"fulfillment"`

	Orders struct {
		RateLimitPerMinute int64         `koanf:"rate_limit_per_minute"`
		StatusCacheTTL     time.Duration `koanf:"status_cache_ttl"`
		IdempotencyTTL     time.Duration `koanf:"idempotency_ttl"`
		ArchiveAfter       time.Duration `koanf:"archive_after"`
	} `koanf:"orders"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix SHOP_, nested with __)
	// e.g. SHOP_MYSQL__DSN, SHOP_PAYMENT__PAYMOB__API_KEY
	if err := k.Load(env.Provider("SHOP_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "SHOP_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Payment.Default == "" {
		return fmt.Errorf("payment.default required")
	}
	if c.Payment.Default == "paymob" && c.Payment.Paymob.HMACSecret == "" {
		// tolerated for local runs; webhook verification is skipped without it
		fmt.Println("warning: paymob selected without hmac_secret, webhook signatures will not be verified")
	}
	return nil
}
