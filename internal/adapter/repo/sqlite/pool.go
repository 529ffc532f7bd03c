// Package sqlite implements the catalog, daily-challenge, token, settings
// and vector repositories on top of SQLite plus the sqlite-vec extension.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3_oj_catalog"

func init() {
	// Mirrors the original's register_sqlite_vec(): loads the vec0 virtual
	// table as a SQLite auto-extension so every connection opened through
	// this driver has it available, then layers natural_sort_key on top as
	// a connection-scoped scalar function for ORDER BY use in problems.go.
	sqlite_vec.Auto()
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("natural_sort_key", NaturalSortKey, true)
		},
	})
}

// Pools bundles the read-only and read-write handles the repositories use.
// Mirrors the original's split between create_ro_pool/create_rw_pool: the
// API surface only ever writes through admin operations, so most query
// traffic runs against RO with query_only=ON as a second line of defense.
type Pools struct {
	RO *sql.DB
	RW *sql.DB
}

// OpenPools ensures the database directory exists, then opens the
// read-only and read-write pools against path.
func OpenPools(path string, maxOpenRO, maxOpenRW int, busyTimeoutMS int) (*Pools, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %q: %w", dir, err)
		}
	}

	ro, err := openPool(path, busyTimeoutMS, maxOpenRO, true)
	if err != nil {
		return nil, fmt.Errorf("open read-only pool: %w", err)
	}
	rw, err := openPool(path, busyTimeoutMS, maxOpenRW, false)
	if err != nil {
		ro.Close()
		return nil, fmt.Errorf("open read-write pool: %w", err)
	}

	return &Pools{RO: ro, RW: rw}, nil
}

func openPool(path string, busyTimeoutMS, maxOpen int, readOnly bool) (*sql.DB, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)

	pragma := fmt.Sprintf("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=%d;", busyTimeoutMS)
	if readOnly {
		pragma += " PRAGMA query_only=ON;"
	}
	if _, err := db.Exec(pragma); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	return db, nil
}

// Close closes both pools, returning the first error encountered.
func (p *Pools) Close() error {
	roErr := p.RO.Close()
	rwErr := p.RW.Close()
	if roErr != nil {
		return roErr
	}
	return rwErr
}
