// migrations.go — SQL-миграции, встроенные в код для упрощения деплоя.
// Каждая миграция применяется один раз, порядок фиксируется
// в таблице schema_migrations.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"shop-bot/internal/db/postgres"
)

// runMigrations выполняет все SQL-миграции по порядку.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Catalog},
		{3, migration003Wallet},
		{4, migration004Orders},
		{5, migration005Deposits},
		{6, migration006Events},
		{7, migration007Referral},
		{8, migration008Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Debugf("Миграция %d применена", m.version)
	}

	return nil
}

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGINT PRIMARY KEY,
    first_name VARCHAR(255) NOT NULL,
    username VARCHAR(255),
    language VARCHAR(8) NOT NULL DEFAULT 'en',
    balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0),
    credits DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (credits >= 0),
    balance_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
    credits_spent DOUBLE PRECISION NOT NULL DEFAULT 0,
    referral_code VARCHAR(32) UNIQUE NOT NULL,
    referred_by BIGINT REFERENCES users(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code);
CREATE INDEX IF NOT EXISTS idx_users_referred_by ON users(referred_by);
`

var migration002Catalog = `
CREATE TABLE IF NOT EXISTS products (
    id BIGSERIAL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    price DOUBLE PRECISION NOT NULL CHECK (price > 0),
    credits_price DOUBLE PRECISION,
    credits_enabled BOOLEAN NOT NULL DEFAULT FALSE,
    description TEXT,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS stock (
    id BIGSERIAL PRIMARY KEY,
    product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
    payload TEXT NOT NULL,
    is_sold BOOLEAN NOT NULL DEFAULT FALSE,
    buyer_id BIGINT REFERENCES users(id),
    batch_id UUID,
    sold_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_stock_available ON stock(product_id) WHERE NOT is_sold;
CREATE INDEX IF NOT EXISTS idx_stock_buyer ON stock(buyer_id);
`

var migration003Wallet = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(32) NOT NULL,
    amount DOUBLE PRECISION NOT NULL,
    currency VARCHAR(16) NOT NULL,
    payment_method VARCHAR(32),
    reference_id VARCHAR(64),
    status VARCHAR(32) NOT NULL DEFAULT 'completed',
    note TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(user_id, type);
`

var migration004Orders = `
CREATE TABLE IF NOT EXISTS orders (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    product_id BIGINT NOT NULL REFERENCES products(id),
    product_name VARCHAR(255) NOT NULL,
    quantity INTEGER NOT NULL CHECK (quantity > 0),
    unit_price DOUBLE PRECISION NOT NULL,
    total_price DOUBLE PRECISION NOT NULL,
    payment_method VARCHAR(32) NOT NULL,
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    chat_id BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_user ON orders(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);
`

var migration005Deposits = `
CREATE TABLE IF NOT EXISTS pending_deposits (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
    currency VARCHAR(16) NOT NULL,
    payment_method VARCHAR(32) NOT NULL,
    payment_code VARCHAR(32) UNIQUE NOT NULL,
    chat_id BIGINT NOT NULL DEFAULT 0,
    status VARCHAR(32) NOT NULL DEFAULT 'pending',
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_pending_deposits_status ON pending_deposits(status) WHERE status = 'pending';
CREATE INDEX IF NOT EXISTS idx_pending_deposits_code ON pending_deposits(payment_code);
`

var migration006Events = `
CREATE TABLE IF NOT EXISTS events (
    id BIGSERIAL PRIMARY KEY,
    code VARCHAR(64) UNIQUE,
    name VARCHAR(255) NOT NULL,
    type VARCHAR(32) NOT NULL,
    reward_amount DOUBLE PRECISION NOT NULL CHECK (reward_amount > 0),
    reward_type VARCHAR(16) NOT NULL DEFAULT 'fixed',
    min_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
    max_claims INTEGER,
    max_per_user INTEGER NOT NULL DEFAULT 1,
    start_date TIMESTAMPTZ,
    end_date TIMESTAMPTZ,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS event_claims (
    id BIGSERIAL PRIMARY KEY,
    event_id BIGINT NOT NULL REFERENCES events(id),
    user_id BIGINT NOT NULL REFERENCES users(id),
    amount DOUBLE PRECISION NOT NULL,
    reference_id VARCHAR(64),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_event_claims_event ON event_claims(event_id);
CREATE INDEX IF NOT EXISTS idx_event_claims_user ON event_claims(event_id, user_id);
`

var migration007Referral = `
CREATE TABLE IF NOT EXISTS referral_config (
    id INTEGER PRIMARY KEY,
    referrer_bonus DOUBLE PRECISION NOT NULL DEFAULT 1,
    referee_bonus DOUBLE PRECISION NOT NULL DEFAULT 0.5,
    min_deposit_for_bonus DOUBLE PRECISION NOT NULL DEFAULT 5,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

var migration008Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(128) NOT NULL,
    authenticated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL,
    last_activity TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id, is_active);
CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    success BOOLEAN NOT NULL,
    attempt_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user ON admin_login_attempts(user_id, attempt_time DESC);
`
