package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository выполняет операции с таблицей orders.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий заказов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const orderColumns = `id, user_id, product_id, product_name, quantity,
	unit_price, total_price, payment_method, status, chat_id, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.UserID, &o.ProductID, &o.ProductName, &o.Quantity,
		&o.UnitPrice, &o.TotalPrice, &o.PaymentMethod, &o.Status, &o.ChatID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create добавляет заказ и возвращает его ID.
func (r *Repository) Create(ctx context.Context, o *Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO orders (user_id, product_id, product_name, quantity,
			unit_price, total_price, payment_method, status, chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, o.UserID, o.ProductID, o.ProductName, o.Quantity,
		o.UnitPrice, o.TotalPrice, o.PaymentMethod, o.Status, o.ChatID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания заказа: %w", err)
	}
	return id, nil
}

// UpdateStatus меняет статус заказа.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	_, err := r.db.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления заказа: %w", err)
	}
	return nil
}

// GetByID возвращает заказ.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("заказ %d не найден", id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказа: %w", err)
	}
	return o, nil
}

// ListByUser возвращает последние заказы пользователя.
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заказов: %w", err)
	}
	defer rows.Close()

	var list []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования заказа: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Stats возвращает сводку по заказам.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(total_price) FILTER (WHERE status = 'completed'), 0),
			COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM orders
	`).Scan(&st.Total, &st.TotalRevenue, &st.Today)
	if err != nil {
		return nil, fmt.Errorf("ошибка сводки заказов: %w", err)
	}
	return &st, nil
}
