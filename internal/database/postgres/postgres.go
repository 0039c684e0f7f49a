package postgres

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/devusSs/kraken-selfbot/internal/config"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/database/postgres/statements"
	_ "github.com/lib/pq"
)

// Internal Postgres structure which executes database.Service layer functions.
type psql struct {
	db *sql.DB
}

// Inits a new Postgres connection and returns database.Service layer.
func New(cfg *config.Config) (database.Service, error) {
	db, err := sql.Open("postgres", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	return &psql{db}, nil
}

// Builds the connection url, escaping credentials and the database name.
func dsn(cfg *config.Config) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.Database.User, cfg.Database.Password),
		Host:     net.JoinHostPort(cfg.Database.Host, strconv.Itoa(cfg.Database.Port)),
		Path:     "/" + cfg.Database.Database,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Test database connection.
func (p *psql) Ping() error {
	return p.db.Ping()
}

// Closes the database connection.
func (p *psql) Close() error {
	return p.db.Close()
}

// Migrates models / creates tables (check statements/tables.go) on database.
func (p *psql) Migrate() error {
	for _, stmt := range []string{statements.CreateAuthEventsTable, statements.CreateCommandEventsTable} {
		if _, err := p.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrating tables: %w", err)
		}
	}

	return nil
}
