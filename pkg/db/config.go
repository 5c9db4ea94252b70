package db

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

// Config describes one database connection. It is read from the environment.
type Config struct {
	Type     string `env:"DB_TYPE"`
	Host     string `env:"DB_HOST"`
	User     string `env:"DB_USER"`
	Password string `env:"DB_PASS"`
	Name     string `env:"DB_NAME"`
	Port     int    `env:"DB_PORT"`

	// SQLite database file. ":memory:" opens a private in-memory database.
	Path string `env:"DB_PATH" envDefault:"db.sqlite"`

	// PostgreSQL driver: "pgx" (default) or "pq".
	PGDriver string `env:"DB_PG_DRIVER" envDefault:"pgx"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	ConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"10m"`

	// Startup retry. Attempt n waits n*RetryInterval before the next one.
	RetryAttempts int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"2s"`

	MigrationsTable string `env:"DB_MIGRATIONS_TABLE" envDefault:"migrations"`

	// Log every statement at info level.
	Debug bool `env:"DB_DEBUG"`
}

// LoadConfig reads .env files (missing files are ignored), parses the
// environment and validates the result.
func LoadConfig(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, errors.Join(ErrConfiguration, fmt.Errorf("load %s: %w", f, err))
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Join(ErrConfiguration, err)
	}
	return cfg, cfg.Validate()
}

// Dialect returns the normalised DB_TYPE: mysql, pgsql or sqlite.
func (c Config) Dialect() string {
	switch strings.ToLower(strings.TrimSpace(c.Type)) {
	case "mysql", "mariadb":
		return "mysql"
	case "pgsql", "postgres", "postgresql":
		return "pgsql"
	case "sqlite", "sqlite3":
		return "sqlite"
	}
	return ""
}

// Validate reports every missing key at once.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Type) == "" {
		return &ConfigError{Missing: []string{"DB_TYPE"}}
	}

	dialect := c.Dialect()
	if dialect == "" {
		return &ConfigError{Type: c.Type, Unsupported: true}
	}

	var missing []string
	switch dialect {
	case "mysql", "pgsql":
		if c.Host == "" {
			missing = append(missing, "DB_HOST")
		}
		if c.User == "" {
			missing = append(missing, "DB_USER")
		}
		if c.Name == "" {
			missing = append(missing, "DB_NAME")
		}
	case "sqlite":
		if c.Path == "" {
			missing = append(missing, "DB_PATH")
		}
	}
	if len(missing) > 0 {
		return &ConfigError{Type: dialect, Missing: missing}
	}
	return nil
}

// DSN returns the database/sql driver name and data source name.
func (c Config) DSN() (string, string) {
	switch c.Dialect() {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.port()))
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return "mysql", mc.FormatDSN()

	case "pgsql":
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(c.User, c.Password),
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.port())),
			Path:   "/" + c.Name,
		}
		q := u.Query()
		q.Set("sslmode", c.SSLMode)
		u.RawQuery = q.Encode()
		if c.PGDriver == "pq" {
			return "postgres", u.String()
		}
		return "pgx", u.String()
	}

	if c.Path == ":memory:" {
		return "sqlite", ":memory:"
	}
	return "sqlite", "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (c Config) port() int {
	if c.Port > 0 {
		return c.Port
	}
	if c.Dialect() == "pgsql" {
		return 5432
	}
	return 3306
}
