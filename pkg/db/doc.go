// Package db opens the process-wide database connection and runs migrations.
//
// A [Config] is read from DB_* environment variables (optionally seeded from a
// .env file). DB_TYPE selects the dialect once, at boot: mysql, pgsql
// (postgresql) or sqlite. The matching [query.Driver] is bound to a single
// database/sql pool that every request shares.
//
// # Configuration
//
//	DB_TYPE               - mysql | pgsql | sqlite (required)
//	DB_HOST, DB_USER,
//	DB_NAME               - required for mysql and pgsql
//	DB_PASS               - optional password
//	DB_PORT               - default 3306 (mysql) or 5432 (pgsql)
//	DB_PATH               - sqlite file (default: db.sqlite)
//	DB_PG_DRIVER          - pgx (default) or pq
//	DB_SSLMODE            - default: disable
//	DB_MAX_OPEN_CONNS     - default: 10
//	DB_MAX_IDLE_CONNS     - default: 5
//	DB_CONN_MAX_LIFETIME  - default: 30m
//	DB_CONN_MAX_IDLE_TIME - default: 10m
//	DB_RETRY_ATTEMPTS     - default: 3
//	DB_RETRY_INTERVAL     - default: 2s
//	DB_MIGRATIONS_TABLE   - default: migrations
//
// A missing or unknown setting is reported as a [*ConfigError] that says which
// keys to add.
//
// # Usage
//
//	cfg, err := db.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	conn, err := db.Open(ctx, cfg, query.WithLogger(log))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer conn.Close()
//
//	posts, err := conn.Table("posts").Where("published", true).Latest("id").Get(ctx)
//
// # Migrations
//
// [Migrator] runs [schema.Migration] values through goose, each inside its own
// transaction:
//
//	m, err := db.NewMigrator(conn, migrations.All(), db.WithMigrationLogger(log))
//	applied, err := m.Up(ctx)
//
// # Errors
//
//   - [ErrConfiguration] - missing or invalid DB_* settings
//   - [ErrConnection] - the pool could not be opened after all retries
//   - [ErrHealthcheckFailed] - ping failed
//   - [ErrMigration] - a migration could not be applied or reverted
package db
