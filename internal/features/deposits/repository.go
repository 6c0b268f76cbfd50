package deposits

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-bot/internal/common"
)

// Repository выполняет операции с таблицей pending_deposits.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий заявок.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const depositColumns = `id, user_id, amount, currency, payment_method,
	payment_code, chat_id, status, expires_at, created_at`

func scanDeposit(row pgx.Row) (*PendingDeposit, error) {
	var d PendingDeposit
	err := row.Scan(&d.ID, &d.UserID, &d.Amount, &d.Currency, &d.PaymentMethod,
		&d.PaymentCode, &d.ChatID, &d.Status, &d.ExpiresAt, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create добавляет заявку и возвращает её ID.
func (r *Repository) Create(ctx context.Context, d *PendingDeposit) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO pending_deposits (user_id, amount, currency, payment_method,
			payment_code, chat_id, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'pending', $7)
		RETURNING id
	`, d.UserID, d.Amount, d.Currency, d.PaymentMethod,
		d.PaymentCode, d.ChatID, d.ExpiresAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return id, nil
}

// GetByCode возвращает заявку по платёжному коду.
func (r *Repository) GetByCode(ctx context.Context, code string) (*PendingDeposit, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+depositColumns+` FROM pending_deposits WHERE payment_code = UPPER($1)`, code)
	d, err := scanDeposit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заявки: %w", err)
	}
	return d, nil
}

// GetByID возвращает заявку по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*PendingDeposit, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+depositColumns+` FROM pending_deposits WHERE id = $1`, id)
	d, err := scanDeposit(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrDepositNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявки: %w", err)
	}
	return d, nil
}

// ListPending возвращает открытые заявки, старые первыми.
func (r *Repository) ListPending(ctx context.Context) ([]*PendingDeposit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+depositColumns+` FROM pending_deposits
		WHERE status = 'pending' ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок: %w", err)
	}
	defer rows.Close()

	var list []*PendingDeposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// TransitionFromPending переводит заявку из pending в status.
// Условие в WHERE делает переход атомарным: из двух гонящихся
// вызовов (фоновая сверка и ручная проверка) выиграет ровно один,
// проигравший получит false. Побочные эффекты зачисления выполняет
// только победитель.
func (r *Repository) TransitionFromPending(ctx context.Context, id int64, status string) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE pending_deposits SET status = $2
		WHERE id = $1 AND status = 'pending'
	`, id, status)
	if err != nil {
		return false, fmt.Errorf("ошибка смены статуса заявки: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
