package postgres

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	DriverPGX = "pgx"
	DriverPQ  = "postgres"
)

// New opens a pool with either the pgx stdlib driver (default) or lib/pq.
func New(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "":
		driver = DriverPGX
	case DriverPGX, DriverPQ:
	default:
		return nil, fmt.Errorf("postgres: unsupported driver %q", driver)
	}
	return sqlx.Connect(driver, dsn)
}
