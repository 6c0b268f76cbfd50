// Package users — repository.go выполняет все операции с таблицей users.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-bot/internal/common"
)

// Repository предоставляет методы для работы с пользователями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий пользователей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, first_name, COALESCE(username, ''), language, balance, credits,
	referral_code, referred_by, balance_spent, credits_spent, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.Username, &u.Language, &u.Balance, &u.Credits,
		&u.ReferralCode, &u.ReferredBy, &u.BalanceSpent, &u.CreditsSpent, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetOrCreate возвращает пользователя, создавая запись при первом обращении.
// У существующего пользователя обновляются имя и username — они меняются
// на стороне Telegram. Реферальный код генерируется ровно один раз.
func (r *Repository) GetOrCreate(ctx context.Context, id int64, firstName, username string) (*User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, first_name, username, referral_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET first_name = $2, username = $3
		RETURNING `+userColumns,
		id, firstName, username, common.GenerateReferralCode(id),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return u, nil
}

// GetByID возвращает пользователя по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

// GetByReferralCode возвращает пользователя по реферальному коду.
// Регистр кода не важен.
func (r *Repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE referral_code = UPPER($1)`, code)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrInvalidReferralCode
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска по коду: %w", err)
	}
	return u, nil
}

// SetReferrer записывает пригласившего. Первая запись выигрывает:
// условие referred_by IS NULL делает операцию атомарной,
// повторная или конкурентная попытка не затронет ни одной строки.
func (r *Repository) SetReferrer(ctx context.Context, userID, referrerID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET referred_by = $2
		WHERE id = $1 AND referred_by IS NULL
	`, userID, referrerID)
	if err != nil {
		return false, fmt.Errorf("ошибка записи пригласившего: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListReferrals возвращает приглашённых пользователем, новые первыми.
func (r *Repository) ListReferrals(ctx context.Context, referrerID int64) ([]*User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE referred_by = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рефералов: %w", err)
	}
	defer rows.Close()

	var list []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SetLanguage сохраняет язык интерфейса пользователя.
func (r *Repository) SetLanguage(ctx context.Context, userID int64, lang string) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET language = $2 WHERE id = $1`, userID, lang)
	if err != nil {
		return fmt.Errorf("ошибка смены языка: %w", err)
	}
	return nil
}

// List возвращает последних зарегистрированных пользователей (для админки).
func (r *Repository) List(ctx context.Context, limit int) ([]*User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пользователей: %w", err)
	}
	defer rows.Close()

	var list []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования пользователя: %w", err)
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// Count возвращает количество пользователей.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return n, nil
}
