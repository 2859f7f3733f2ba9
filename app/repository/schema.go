package repository

import (
	"context"
	"fmt"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS donations (
		id CHAR(36) NOT NULL PRIMARY KEY,
		donor_name VARCHAR(255) NOT NULL,
		donor_email VARCHAR(255) NOT NULL,
		donor_phone VARCHAR(32) NULL,
		amount_cents BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		payment_method VARCHAR(16) NOT NULL,
		provider VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		transaction_id VARCHAR(128) NULL,
		message TEXT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		KEY idx_donations_status_created (status, created_at),
		KEY idx_donations_provider_transaction (provider, transaction_id),
		KEY idx_donations_email (donor_email),
		CONSTRAINT chk_donations_payment_method CHECK (payment_method IN ('pix', 'card', 'boleto', 'paypal')),
		CONSTRAINT chk_donations_status CHECK (status IN ('pending', 'completed', 'failed'))
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS donation_events (
		id CHAR(36) NOT NULL PRIMARY KEY,
		donation_id CHAR(36) NOT NULL,
		event_type VARCHAR(64) NOT NULL,
		actor VARCHAR(16) NOT NULL,
		old_status VARCHAR(16) NULL,
		new_status VARCHAR(16) NOT NULL,
		payload_json TEXT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY idx_donation_events_donation (donation_id, created_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS donations (
		id UUID PRIMARY KEY,
		donor_name TEXT NOT NULL,
		donor_email TEXT NOT NULL,
		donor_phone TEXT NULL,
		amount_cents BIGINT NOT NULL,
		currency CHAR(3) NOT NULL,
		payment_method TEXT NOT NULL CHECK (payment_method IN ('pix', 'card', 'boleto', 'paypal')),
		provider TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'failed')),
		transaction_id TEXT NULL,
		message TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_status_created ON donations (status, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_provider_transaction ON donations (provider, transaction_id)`,
	`CREATE INDEX IF NOT EXISTS idx_donations_email ON donations (donor_email)`,
	`CREATE TABLE IF NOT EXISTS donation_events (
		id UUID PRIMARY KEY,
		donation_id UUID NOT NULL REFERENCES donations (id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		actor TEXT NOT NULL,
		old_status TEXT NULL,
		new_status TEXT NOT NULL,
		payload_json TEXT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_donation_events_donation ON donation_events (donation_id, created_at)`,
}

func Schema(dialect Dialect) ([]string, error) {
	switch dialect {
	case DialectMySQL:
		return mysqlSchema, nil
	case DialectPostgres:
		return postgresSchema, nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
}

// Migrate creates the ledger tables when they do not exist yet.
func Migrate(ctx context.Context, db DBTX, dialect Dialect) error {
	statements, err := Schema(dialect)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
