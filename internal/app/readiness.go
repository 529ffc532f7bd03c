// Package app wires application components and startup helpers.
//
// It provides dependency injection and application initialization.
// The package coordinates between different layers and provides
// a clean application bootstrap process.
package app

import (
	"context"
	"database/sql"
	"fmt"
)

// embeddingDim must agree with the schema package's stored vector width.
const embeddingDim = 768

// BuildReadinessChecks returns the /healthz checks: DB reachability, and
// sqlite-vec availability plus stored embedding dimension.
func BuildReadinessChecks(ro *sql.DB) (dbCheck, vecCheck func(ctx context.Context) error) {
	dbCheck = func(ctx context.Context) error {
		if ro == nil {
			return fmt.Errorf("database not configured")
		}
		return ro.PingContext(ctx)
	}
	vecCheck = func(ctx context.Context) error {
		if ro == nil {
			return fmt.Errorf("database not configured")
		}
		var version string
		if err := ro.QueryRowContext(ctx, "SELECT vec_version()").Scan(&version); err != nil {
			return fmt.Errorf("sqlite-vec not loaded: %w", err)
		}
		var dim sql.NullInt64
		err := ro.QueryRowContext(ctx, "SELECT dim FROM problem_embeddings LIMIT 1").Scan(&dim)
		if err != nil || !dim.Valid {
			return nil
		}
		if int(dim.Int64) != embeddingDim {
			return fmt.Errorf("stored embedding dimension %d != %d", dim.Int64, embeddingDim)
		}
		return nil
	}
	return dbCheck, vecCheck
}

// StartupSelfCheck fatals the process if sqlite-vec failed to load: the
// server must not come up silently unable to do kNN.
func StartupSelfCheck(ctx context.Context, ro *sql.DB) error {
	var version string
	return ro.QueryRowContext(ctx, "SELECT vec_version()").Scan(&version)
}
