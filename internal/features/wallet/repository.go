// Package wallet — repository.go выполняет все денежные операции.
// Каждая мутация кошелька — одна транзакция БД: изменение балансов
// и запись в журнал либо происходят вместе, либо не происходят вовсе.
// Проверка достаточности средств выполняется под блокировкой строки
// пользователя (SELECT ... FOR UPDATE), поэтому конкурентные списания
// по одному пользователю сериализуются базой.
package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-bot/internal/common"
)

// Repository предоставляет денежные операции над таблицами users и transactions.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий кошелька.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetWallet возвращает снимок кошелька пользователя.
func (r *Repository) GetWallet(ctx context.Context, userID int64) (*Wallet, error) {
	var w Wallet
	err := r.db.QueryRow(ctx, `
		SELECT balance, credits, balance_spent, credits_spent
		FROM users WHERE id = $1
	`, userID).Scan(&w.Balance, &w.Credits, &w.BalanceSpent, &w.CreditsSpent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения кошелька: %w", err)
	}
	w.Total = w.Balance + w.Credits
	return &w, nil
}

// AddBalance зачисляет средства на баланс и пишет запись журнала.
func (r *Repository) AddBalance(ctx context.Context, userID int64, amount float64, txType, method, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET balance = balance + $2 WHERE id = $1`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, currency, payment_method, status, note)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'completed', $6)
	`, userID, txType, amount, CurrencyUSDT, method, note)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// AddCredits зачисляет кредиты и пишет запись журнала.
func (r *Repository) AddCredits(ctx context.Context, userID int64, amount float64, txType, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $2 WHERE id = $1`, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка начисления кредитов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, currency, status, note)
		VALUES ($1, $2, $3, $4, 'completed', $5)
	`, userID, txType, amount, CurrencyCredits, note)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// Purchase списывает amount по выбранному способу оплаты.
// Проверка и списание — одна транзакция БД: строка пользователя
// блокируется, раскладка считается по фактическим остаткам,
// обе части списания применяются одним UPDATE.
func (r *Repository) Purchase(ctx context.Context, userID int64, amount float64, method string) (*PurchaseResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var balance, credits float64
	err = tx.QueryRow(ctx,
		`SELECT balance, credits FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance, &credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения балансов: %w", err)
	}

	usedCredits, usedBalance, err := ComputeSplit(balance, credits, amount, method)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET
			balance = balance - $2,
			credits = credits - $3,
			balance_spent = balance_spent + $2,
			credits_spent = credits_spent + $3
		WHERE id = $1
	`, userID, usedBalance, usedCredits)
	if err != nil {
		return nil, fmt.Errorf("ошибка списания: %w", err)
	}

	currency := CurrencyUSDT
	if method == PayCredits {
		currency = CurrencyCredits
	}
	note := fmt.Sprintf("Credits: %s, Balance: %s",
		common.FormatNumber(usedCredits), common.FormatNumber(usedBalance))
	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, currency, status, note)
		VALUES ($1, $2, $3, $4, 'completed', $5)
	`, userID, TxTypePurchase, -amount, currency, note)
	if err != nil {
		return nil, fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации: %w", err)
	}
	return &PurchaseResult{UsedCredits: usedCredits, UsedBalance: usedBalance}, nil
}

// Refund возвращает средства на баланс или в кредиты.
// Проверка достаточности не нужна — это зачисление.
func (r *Repository) Refund(ctx context.Context, userID int64, amount float64, toWallet, note string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var query, currency string
	if toWallet == PayCredits {
		query = `UPDATE users SET credits = credits + $2 WHERE id = $1`
		currency = CurrencyCredits
	} else {
		query = `UPDATE users SET balance = balance + $2 WHERE id = $1`
		currency = CurrencyUSDT
	}

	tag, err := tx.Exec(ctx, query, userID, amount)
	if err != nil {
		return fmt.Errorf("ошибка возврата: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, currency, status, note)
		VALUES ($1, $2, $3, $4, 'completed', $5)
	`, userID, TxTypeRefund, amount, currency, note)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}

	return tx.Commit(ctx)
}

// TotalDeposits возвращает сумму всех завершённых пополнений пользователя.
// Нужна реферальному модулю для проверки «порог пересечён впервые».
func (r *Repository) TotalDeposits(ctx context.Context, userID int64) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = 'completed'
	`, userID, TxTypeDeposit).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта пополнений: %w", err)
	}
	return total, nil
}

// TotalByType возвращает сумму транзакций пользователя указанного типа.
func (r *Repository) TotalByType(ctx context.Context, userID int64, txType string) (float64, error) {
	var total float64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND type = $2
	`, userID, txType).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта транзакций: %w", err)
	}
	return total, nil
}

// History возвращает последние транзакции пользователя, новые первыми.
func (r *Repository) History(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, amount, currency, payment_method, reference_id, status, COALESCE(note, ''), created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения истории: %w", err)
	}
	defer rows.Close()

	var list []*Transaction
	for rows.Next() {
		var t Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Currency,
			&t.PaymentMethod, &t.ReferenceID, &t.Status, &t.Note, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
