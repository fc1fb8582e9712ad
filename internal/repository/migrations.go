package repository

import "context"

const schema = `
	CREATE TABLE IF NOT EXISTS wallets (
		id UUID PRIMARY KEY,
		balance DECIMAL(15, 2) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		last_operation VARCHAR(10) CHECK (last_operation IN ('DEPOSIT', 'WITHDRAW')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// Migrate applies the wallet schema. Run at startup and by the test harness.
func Migrate(ctx context.Context, pool Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
