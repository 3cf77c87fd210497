package postgres

import (
	"context"
	"fmt"
	"strings"
)

// walletTables back the event store, snapshots, read models and idempotency keys.
var walletTables = []string{
	"wallet_streams",
	"wallet_events",
	"wallet_snapshots",
	"wallet_views",
	"denomination_views",
	"transaction_views",
	"idempotency_keys",
}

// HealthCheck implements ports.HealthChecker for the PostgreSQL event store and
// read models. It fails when the server is unreachable or the wallet schema is
// incomplete, e.g. when migrations were skipped.
type HealthCheck struct {
	pool Pool
}

// NewHealthCheck creates a PostgreSQL health checker.
func NewHealthCheck(pool Pool) *HealthCheck {
	return &HealthCheck{pool: pool}
}

// Ping lists the wallet tables the server cannot resolve.
func (h *HealthCheck) Ping(ctx context.Context) error {
	rows, err := h.pool.Query(ctx,
		`SELECT name FROM unnest($1::text[]) AS t(name) WHERE to_regclass(name) IS NULL`, walletTables)
	if err != nil {
		return fmt.Errorf("check wallet schema: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan missing table: %w", err)
		}
		missing = append(missing, name)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("check wallet schema: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("wallet schema incomplete, missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Name returns the dependency name.
func (h *HealthCheck) Name() string {
	return "postgresql"
}
