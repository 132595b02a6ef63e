package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	DeliveryModeAsync = "async"
	DeliveryModeSync  = "sync"
)

type Config struct {
	IsTestMode bool `env:"TEST_MODE" envDefault:"false"`
	Port       int  `env:"PORT" envDefault:"8080"`

	Secret        string `env:"SECRET,required"`
	PostgresqlURL string `env:"POSTGRESQL_URL,required"`
	RedisURL      string `env:"REDIS_URL,required"`

	RabbitmqURL            string `env:"RABBITMQ_URL,required"`
	RabbitmqResetLinkQueue string `env:"RABBITMQ_RESET_LINK_QUEUE" envDefault:"password_reset_link_requested"`

	BcryptHasherCost int `env:"BCRYPT_HASHER_COST" envDefault:"12"`

	PasswordResetTokenTTL           time.Duration `env:"PASSWORD_RESET_TOKEN_TTL" envDefault:"1h"`
	PasswordResetRequestMinDuration time.Duration `env:"PASSWORD_RESET_REQUEST_MIN_DURATION" envDefault:"300ms"`
	PasswordResetDeliveryMode       string        `env:"PASSWORD_RESET_DELIVERY_MODE" envDefault:"async"`
	PasswordResetDeliveryTimeout    time.Duration `env:"PASSWORD_RESET_DELIVERY_TIMEOUT" envDefault:"10s"`
	PasswordMinLength               int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	CredentialUpdateMaxRetries      uint64        `env:"CREDENTIAL_UPDATE_MAX_RETRIES" envDefault:"3"`

	FrontendBaseURL url.URL  `env:"FRONTEND_BASE_URL,required"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	AwsRegion                     string `env:"AWS_REGION,required"`
	AwsAccessKey                  string `env:"AWS_ACCESS_KEY,required"`
	AwsSecretKey                  string `env:"AWS_SECRET_KEY,required"`
	AwsEmailSender                string `env:"AWS_EMAIL_SENDER,required"`
	AwsEmailPasswordResetTemplate string `env:"AWS_EMAIL_PASSWORD_RESET_TEMPLATE,required"`

	SentryDsn *url.URL `env:"SENTRY_DSN"`

	ReaperSchedule  string        `env:"REAPER_SCHEDULE" envDefault:"@every 15m"`
	ReaperRetention time.Duration `env:"REAPER_RETENTION" envDefault:"24h"`
	ReaperLockTTL   time.Duration `env:"REAPER_LOCK_TTL" envDefault:"5m"`
}

// Load reads an optional .env file from the working directory and then the
// process environment. Variables already set in the environment win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}
	return Parse()
}

func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Secret == "" {
		return errors.New("SECRET must not be empty")
	}
	if c.PasswordResetTokenTTL <= 0 {
		return fmt.Errorf("PASSWORD_RESET_TOKEN_TTL must be positive, got %v", c.PasswordResetTokenTTL)
	}
	if c.PasswordResetRequestMinDuration < 0 {
		return fmt.Errorf("PASSWORD_RESET_REQUEST_MIN_DURATION must not be negative")
	}
	switch c.PasswordResetDeliveryMode {
	case DeliveryModeAsync, DeliveryModeSync:
	default:
		return fmt.Errorf("unknown PASSWORD_RESET_DELIVERY_MODE %q", c.PasswordResetDeliveryMode)
	}
	if c.PasswordMinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1, got %d", c.PasswordMinLength)
	}
	if c.FrontendBaseURL.Scheme == "" || c.FrontendBaseURL.Host == "" {
		return fmt.Errorf("FRONTEND_BASE_URL must be an absolute URL")
	}
	if c.ReaperRetention < 0 {
		return fmt.Errorf("REAPER_RETENTION must not be negative")
	}
	if c.ReaperLockTTL <= 0 {
		return fmt.Errorf("REAPER_LOCK_TTL must be positive")
	}
	return nil
}

// RequestMinDuration is the latency floor for reset requests. Test mode
// turns it off so end-to-end suites stay fast.
func (c *Config) RequestMinDuration() time.Duration {
	if c.IsTestMode {
		return 0
	}
	return c.PasswordResetRequestMinDuration
}
