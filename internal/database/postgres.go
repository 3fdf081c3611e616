package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/user/cryptofolio/internal/logger"
)

var DB *pgxpool.Pool

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'USER',
	deposit_address TEXT NOT NULL DEFAULT '',
	deposit_qr TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS assets (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	symbol TEXT NOT NULL,
	amount NUMERIC(32,8) NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, symbol)
);

CREATE TABLE IF NOT EXISTS transactions (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'PENDING',
	crypto_type TEXT NOT NULL,
	amount NUMERIC(32,8) NOT NULL,
	address TEXT NOT NULL DEFAULT '',
	tx_hash TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_status ON transactions(status);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	message TEXT NOT NULL,
	read BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id);

CREATE TABLE IF NOT EXISTS activities (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Init opens the connection pool and bootstraps the schema.
func Init(ctx context.Context, databaseURL string) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Log.Fatal("unable to create database pool", zap.Error(err))
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Log.Fatal("database ping failed", zap.Error(err))
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		logger.Log.Fatal("schema bootstrap failed", zap.Error(err))
	}

	DB = pool
	logger.Log.Info("connected to the database")
}

// Close closes the connection pool.
func Close() {
	if DB != nil {
		DB.Close()
		logger.Log.Info("database connection closed")
	}
}
