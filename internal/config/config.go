package config

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/providers/env"
)

type Config struct {
	Primary  Primary        `koanf:"primary"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Nodo     NodoConfig     `koanf:"nodo"`
	Gateways GatewaysConfig `koanf:"gateways"`
	Kafka    KafkaConfig    `koanf:"kafka"`
	Breaker  BreakerConfig  `koanf:"breaker"`
	Worker   WorkerConfig   `koanf:"worker"`
	Logger   LoggerConfig   `koanf:"logger"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port         string        `koanf:"port" validate:"required"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout  time.Duration `koanf:"idle_timeout" validate:"required"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type RedisConfig struct {
	Host              string        `koanf:"host" validate:"required"`
	Port              string        `koanf:"port" validate:"required"`
	Password          string        `koanf:"password"`
	DB                int           `koanf:"db"`
	PaymentRequestTTL time.Duration `koanf:"payment_request_ttl" validate:"required"`
	WalletSessionTTL  time.Duration `koanf:"wallet_session_ttl" validate:"required"`
}

// NodoConfig holds the connection and identity settings for the central
// payment node.
type NodoConfig struct {
	BaseURL            string        `koanf:"base_url" validate:"required"`
	ConnTimeout        time.Duration `koanf:"conn_timeout" validate:"required"`
	PspID              string        `koanf:"psp_id" validate:"required"`
	BrokerID           string        `koanf:"broker_id" validate:"required"`
	ChannelID          string        `koanf:"channel_id" validate:"required"`
	PspFiscalCode      string        `koanf:"psp_fiscal_code" validate:"required"`
	PostalIBANPrefixes []string      `koanf:"postal_iban_prefixes"`
}

type GatewaysConfig struct {
	XPay     GatewayConfig `koanf:"xpay"`
	VPos     GatewayConfig `koanf:"vpos"`
	Redirect GatewayConfig `koanf:"redirect"`
	NPG      GatewayConfig `koanf:"npg"`

	// RedirectPaymentTypes lists the payment type codes served by the
	// out-of-band redirect family.
	RedirectPaymentTypes []string `koanf:"redirect_payment_types"`

	// AuthorizationTimeout bounds how late a redirect-family outcome
	// callback may arrive, measured from the authorization request.
	AuthorizationTimeout time.Duration `koanf:"authorization_timeout" validate:"required"`
}

type GatewayConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	ConnTimeout time.Duration `koanf:"conn_timeout"`
}

type KafkaConfig struct {
	Brokers     []string `koanf:"brokers" validate:"required"`
	RefundTopic string   `koanf:"refund_topic" validate:"required"`
	EventsTopic string   `koanf:"events_topic" validate:"required"`
}

type BreakerConfig struct {
	MaxRequests uint32        `koanf:"max_requests"`
	Interval    time.Duration `koanf:"interval"`
	Timeout     time.Duration `koanf:"timeout"`
	MinFailures uint32        `koanf:"min_failures"`
}

type WorkerConfig struct {
	Interval            time.Duration `koanf:"interval" validate:"required"`
	BatchSize           int           `koanf:"batch_size" validate:"required"`
	TransactionLifetime time.Duration `koanf:"transaction_lifetime" validate:"required"`
}

type LoggerConfig struct {
	Level string `koanf:"level"`
}

func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	err := k.Load(env.Provider("TRANSACTIONS_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "TRANSACTIONS_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	validate := validator.New()

	err = validate.Struct(mainConfig)
	if err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// NewLogger builds the process logger from the configured level.
func (c LoggerConfig) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
