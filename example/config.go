package main

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/pypehq/pype/pkg/logger"
	"github.com/pypehq/pype/pkg/mailer"
	"github.com/pypehq/pype/pkg/mailer/resend"
	"github.com/pypehq/pype/pkg/redis"
	"github.com/pypehq/pype/pkg/storage"
)

type config struct {
	Addr           string        `env:"APP_ADDR" envDefault:":8080"`
	URL            string        `env:"APP_URL" envDefault:"http://localhost:8080"`
	Secret         string        `env:"APP_KEY" envDefault:"insecure-development-key-change-me!!"`
	Debug          bool          `env:"APP_DEBUG"`
	SecureCookies  bool          `env:"APP_SECURE_COOKIES"`
	RequestTimeout time.Duration `env:"APP_REQUEST_TIMEOUT" envDefault:"10s"`
	RateLimit      int           `env:"APP_RATE_LIMIT" envDefault:"120"`
	CORSOrigins    []string      `env:"APP_CORS_ORIGINS" envSeparator:","`

	Log     logger.Config
	Sentry  logger.SentryConfig
	Redis   redis.Config
	Mail    mailer.Config
	Resend  resend.Config
	Storage storage.Config
}

// loadConfig reads .env when present, then the process environment.
func loadConfig(files ...string) (config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config{}, err
		}
	}
	return env.ParseAs[config]()
}
