package referral

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository хранит настройки программы в таблице referral_config.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий настроек.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetConfig читает настройки. Строка одна (id = 1); если её нет,
// возвращается nil и сервис берёт значения из окружения.
func (r *Repository) GetConfig(ctx context.Context) (*Config, error) {
	var c Config
	err := r.db.QueryRow(ctx, `
		SELECT referrer_bonus, referee_bonus, min_deposit_for_bonus
		FROM referral_config WHERE id = 1
	`).Scan(&c.ReferrerBonus, &c.RefereeBonus, &c.MinDepositForBonus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения настроек рефералки: %w", err)
	}
	return &c, nil
}

// UpdateConfig сохраняет настройки (upsert единственной строки).
func (r *Repository) UpdateConfig(ctx context.Context, c *Config) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO referral_config (id, referrer_bonus, referee_bonus, min_deposit_for_bonus, updated_at)
		VALUES (1, $1, $2, $3, NOW())
		ON CONFLICT (id) DO UPDATE SET
			referrer_bonus = EXCLUDED.referrer_bonus,
			referee_bonus = EXCLUDED.referee_bonus,
			min_deposit_for_bonus = EXCLUDED.min_deposit_for_bonus,
			updated_at = NOW()
	`, c.ReferrerBonus, c.RefereeBonus, c.MinDepositForBonus)
	if err != nil {
		return fmt.Errorf("ошибка сохранения настроек рефералки: %w", err)
	}
	return nil
}
