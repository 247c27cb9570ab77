package postgres

import (
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"oshikake/internal/config"
)

// NewDB opens a PostgreSQL connection pool sized from config and verifies
// the connection with an initial ping.
func NewDB(cfg *config.DBConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres.NewDB: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	// Recycle connections so long-running processes survive server-side
	// idle timeouts and failovers.
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}
