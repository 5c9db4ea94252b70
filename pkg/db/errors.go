package db

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration     = errors.New("db: invalid configuration")
	ErrConnection        = errors.New("db: failed to open database connection")
	ErrHealthcheckFailed = errors.New("db: healthcheck failed")
	ErrMigration         = errors.New("db migrator: failed to apply migrations")
)

// ConfigError lists what is missing from the environment and how to fix it.
type ConfigError struct {
	Type        string
	Missing     []string
	Unsupported bool
}

func (e *ConfigError) Error() string {
	switch {
	case e.Unsupported:
		return fmt.Sprintf("db: unsupported DB_TYPE %q, set DB_TYPE to mysql, pgsql or sqlite", e.Type)
	case e.Type == "":
		return "db: DB_TYPE is not set, add DB_TYPE=mysql, DB_TYPE=pgsql or DB_TYPE=sqlite to your environment or .env file"
	case e.Type == "sqlite":
		return "db: sqlite needs DB_PATH, for example DB_PATH=storage/app.sqlite"
	}
	return fmt.Sprintf("db: %s configuration is incomplete, missing %s (required: DB_HOST, DB_USER, DB_NAME; optional: DB_PASS, DB_PORT)",
		e.Type, strings.Join(e.Missing, ", "))
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrConfiguration
}
