package service

import (
	"context"
	"database/sql"
	"expense-ledger-api/config"
	"fmt"
	"time"
)

const defaultLockTimeout = 3 * time.Second

// beginLedgerTx opens the atomic scope every balance mutation runs in.
// SET LOCAL bounds row-lock waits to the configured timeout for this
// transaction only, so contended operations fail as busy instead of
// queueing indefinitely.
func beginLedgerTx(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}

	timeout := defaultLockTimeout
	if cfg := config.AppConfig.Ledger.LockTimeout; cfg != "" {
		if d, err := time.ParseDuration(cfg); err == nil {
			timeout = d
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("could not set lock timeout: %w", err)
	}

	return tx, nil
}
