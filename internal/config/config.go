package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port        string   `env:"PORT" envDefault:"8080"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
}

// MongoConfig holds the connection settings for the account store.
type MongoConfig struct {
	URI      string `env:"MONGO_URI,required,notEmpty"`
	Database string `env:"MONGO_DB" envDefault:"projecthub"`
}

// RedisConfig holds the connection settings for the OTP and session stores.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// TokenConfig holds the signing secrets and lifetimes for both token
// classes. The two secrets must be independent so a leaked refresh secret
// cannot mint access tokens and vice versa.
type TokenConfig struct {
	AccessSecret  string        `env:"ACCESS_TOKEN_SECRET,required,notEmpty"`
	RefreshSecret string        `env:"REFRESH_TOKEN_SECRET,required,notEmpty"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
}

// OTPConfig holds the lifetime and attempt budget for one-time passcodes.
type OTPConfig struct {
	TTL         time.Duration `env:"OTP_TTL" envDefault:"10m"`
	MaxAttempts int           `env:"OTP_MAX_ATTEMPTS" envDefault:"5"`
}

// ResendConfig holds the Resend API credentials for outbound email.
// An empty APIKey switches the gateway to the log-only dev sender.
type ResendConfig struct {
	APIKey string `env:"RESEND_API_KEY"`
	From   string `env:"FROM_EMAIL" envDefault:"ProjectHub <noreply@projecthub.app>"`
}

func load[T any]() (*T, error) {
	cfg := new(T)
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewServerConfig() (*ServerConfig, error) { return load[ServerConfig]() }
func NewMongoConfig() (*MongoConfig, error)   { return load[MongoConfig]() }
func NewRedisConfig() (*RedisConfig, error)   { return load[RedisConfig]() }
func NewTokenConfig() (*TokenConfig, error)   { return load[TokenConfig]() }
func NewOTPConfig() (*OTPConfig, error)       { return load[OTPConfig]() }
func NewResendConfig() (*ResendConfig, error) { return load[ResendConfig]() }
