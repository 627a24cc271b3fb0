package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects bun to the configured driver. For sqlite the dsn is a file path
// (optionally with mattn query options).
func Open(driver, dsn string) (*bun.DB, error) {
	switch driver {
	case DriverSQLite, "sqlite3", "":
		if dsn == "" {
			return nil, fmt.Errorf("sqlite path not configured")
		}
		if !strings.Contains(dsn, "_busy_timeout") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn += sep + "_busy_timeout=5000"
		}
		sqldb, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// single writer; concurrent writers would otherwise surface SQLITE_BUSY
		sqldb.SetMaxOpenConns(1)
		return bun.NewDB(sqldb, sqlitedialect.New()), nil
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres url not configured")
		}
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
