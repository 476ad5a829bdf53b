// Package config loads and validates application configuration.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Payment  PaymentConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	CORSAllowOrigins []string
}

// NetworkConfig pairs a CAIP-2 network identifier with the merchant's
// receiving address on that network.
type NetworkConfig struct {
	Network string
	PayTo   string
}

// PaymentConfig holds the payment-gating configuration: pricing constants,
// trust-tier spend limits, accepted networks, and the facilitator endpoint.
type PaymentConfig struct {
	// TaxRate is the flat sales tax rate applied to every cart (e.g. 0.0875).
	TaxRate decimal.Decimal

	// ShippingFee is the flat fee charged unless the cart is fully digital.
	ShippingFee decimal.Decimal

	// DigitalCategories lists product categories that ship nothing physical.
	// Compared case-insensitively.
	DigitalCategories []string

	// SpendLimitVerified is the per-order ceiling for agents with a verified
	// credential.
	SpendLimitVerified decimal.Decimal

	// SpendLimitHighRep is the ceiling for registry-claimed agents at or
	// above HighRepThreshold.
	SpendLimitHighRep decimal.Decimal

	// SpendLimitBaseline is the ceiling for claimed-but-low-reputation and
	// anonymous agents.
	SpendLimitBaseline decimal.Decimal

	// HighRepThreshold is the reputation score at which a claimed agent
	// moves to the high-rep tier.
	HighRepThreshold int

	// Networks are the payment networks offered in every challenge.
	Networks []NetworkConfig

	// FacilitatorURL is the external facilitator endpoint.
	FacilitatorURL string

	// MaxTimeoutSeconds bounds the facilitator's settlement window, carried
	// on every requirement.
	MaxTimeoutSeconds int

	// VerifyOnly skips on-chain settlement after order commit.
	VerifyOnly bool
}

// Load reads configuration from config.toml and MERCHANT_-prefixed
// environment variables, applies defaults, and validates the result.
// Priority: env vars over file over defaults.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine; defaults and env vars apply.
	}

	v.SetEnvPrefix("MERCHANT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		},
		Payment: PaymentConfig{
			DigitalCategories: v.GetStringSlice("payment.digital_categories"),
			HighRepThreshold:  v.GetInt("payment.high_rep_threshold"),
			FacilitatorURL:    v.GetString("payment.facilitator_url"),
			MaxTimeoutSeconds: v.GetInt("payment.max_timeout_seconds"),
			VerifyOnly:        v.GetBool("payment.verify_only"),
		},
	}

	var err error
	if cfg.Payment.TaxRate, err = decimalSetting(v, "payment.tax_rate"); err != nil {
		return nil, err
	}
	if cfg.Payment.ShippingFee, err = decimalSetting(v, "payment.shipping_fee"); err != nil {
		return nil, err
	}
	if cfg.Payment.SpendLimitVerified, err = decimalSetting(v, "payment.spend_limit_verified"); err != nil {
		return nil, err
	}
	if cfg.Payment.SpendLimitHighRep, err = decimalSetting(v, "payment.spend_limit_high_rep"); err != nil {
		return nil, err
	}
	if cfg.Payment.SpendLimitBaseline, err = decimalSetting(v, "payment.spend_limit_baseline"); err != nil {
		return nil, err
	}

	cfg.Payment.Networks = networkSettings(v)

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// decimalSetting parses a money/rate setting exactly; float config values
// would reintroduce the rounding drift the pricing layer is built to avoid.
func decimalSetting(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := v.GetString(key)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q: %w", key, raw, err)
	}
	return d, nil
}

// networkSettings reads payment.networks, a list of {network, pay_to}
// tables. Entries without an address are skipped: a network the merchant
// cannot receive on is never offered.
func networkSettings(v *viper.Viper) []NetworkConfig {
	var raw []map[string]string
	if err := v.UnmarshalKey("payment.networks", &raw); err != nil {
		return nil
	}

	networks := make([]NetworkConfig, 0, len(raw))
	for _, entry := range raw {
		nc := NetworkConfig{Network: entry["network"], PayTo: entry["pay_to"]}
		if nc.Network == "" || nc.PayTo == "" {
			continue
		}
		networks = append(networks, nc)
	}
	return networks
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "merchant-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8000"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "merchant"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		// Settlement rides inside the request; the write timeout must
		// outlast the facilitator's settle window.
		cfg.HTTP.WriteTimeout = 120 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}

	p := &cfg.Payment
	if p.TaxRate.IsZero() {
		p.TaxRate = decimal.RequireFromString("0.0875")
	}
	if p.ShippingFee.IsZero() {
		p.ShippingFee = decimal.RequireFromString("15.00")
	}
	if len(p.DigitalCategories) == 0 {
		p.DigitalCategories = []string{
			"digital", "digital services", "api access", "data & analytics",
			"compute", "enterprise", "ai & ml", "software",
		}
	}
	if p.SpendLimitVerified.IsZero() {
		p.SpendLimitVerified = decimal.RequireFromString("2000")
	}
	if p.SpendLimitHighRep.IsZero() {
		p.SpendLimitHighRep = decimal.RequireFromString("20")
	}
	if p.SpendLimitBaseline.IsZero() {
		p.SpendLimitBaseline = decimal.RequireFromString("5")
	}
	if p.HighRepThreshold == 0 {
		p.HighRepThreshold = 100
	}
	if p.FacilitatorURL == "" {
		p.FacilitatorURL = "https://facilitator.payai.network"
	}
	if p.MaxTimeoutSeconds == 0 {
		p.MaxTimeoutSeconds = 300
	}
}

// validate performs validation on the configuration.
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	p := &c.Payment
	if p.TaxRate.IsNegative() || p.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("payment.tax_rate must be in [0, 1), got %s", p.TaxRate)
	}
	if p.ShippingFee.IsNegative() {
		return fmt.Errorf("payment.shipping_fee cannot be negative")
	}
	for _, limit := range []decimal.Decimal{p.SpendLimitVerified, p.SpendLimitHighRep, p.SpendLimitBaseline} {
		if limit.IsNegative() {
			return fmt.Errorf("spend limits cannot be negative")
		}
	}
	if p.SpendLimitVerified.LessThan(p.SpendLimitHighRep) || p.SpendLimitHighRep.LessThan(p.SpendLimitBaseline) {
		return fmt.Errorf("spend limits must be ordered verified >= high_rep >= baseline")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if len(p.Networks) == 0 {
			return fmt.Errorf("payment.networks must be configured in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values.
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
