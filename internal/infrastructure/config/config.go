package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries every runtime setting the API process needs. Values are read
// from the environment; a .env file loaded by the caller feeds the same keys
// during local development.
type Config struct {
	Env  string `envconfig:"APP_ENV" default:"development"`
	Addr string `envconfig:"ADDR" default:":8080"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL"`

	JWTSecret       string        `envconfig:"SECRET_KEY" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"60m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`

	// Inbound socket frames allowed per connection, sustained and burst.
	MessageRate  float64 `envconfig:"MESSAGE_RATE" default:"10"`
	MessageBurst int     `envconfig:"MESSAGE_BURST" default:"20"`
}

// Load populates Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool { return c.Env == "production" }
