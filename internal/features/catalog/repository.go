// Package catalog — repository.go выполняет операции с таблицами
// products и stock. Резервация склада — одно атомарное выражение:
// отбор и пометка позиций происходят в одном UPDATE, так что два
// конкурентных покупателя никогда не получат одну и ту же позицию.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-bot/internal/common"
)

// Repository предоставляет методы для работы с товарами и складом.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий каталога.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `p.id, p.name, p.price, p.credits_price, p.credits_enabled,
	COALESCE(p.description, ''), p.is_active,
	COUNT(s.id) FILTER (WHERE NOT s.is_sold) AS stock_count,
	p.created_at`

const productGroup = `GROUP BY p.id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.CreditsPrice, &p.CreditsEnabled,
		&p.Description, &p.IsActive, &p.StockCount, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts возвращает товары с производным остатком склада.
func (r *Repository) ListProducts(ctx context.Context, activeOnly bool) ([]*Product, error) {
	where := ""
	if activeOnly {
		where = "WHERE p.is_active"
	}
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM products p
		LEFT JOIN stock s ON s.product_id = p.id
		%s %s
		ORDER BY p.id DESC
	`, productColumns, where, productGroup))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товаров: %w", err)
	}
	defer rows.Close()

	var list []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetProduct возвращает товар по ID вместе с остатком склада.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM products p
		LEFT JOIN stock s ON s.product_id = p.id
		WHERE p.id = $1 %s
	`, productColumns, productGroup), id)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return p, nil
}

// CreateProduct добавляет товар и возвращает его ID.
func (r *Repository) CreateProduct(ctx context.Context, name string, price float64, description string, creditsPrice *float64, creditsEnabled bool) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, price, description, credits_price, credits_enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, name, price, description, creditsPrice, creditsEnabled).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания товара: %w", err)
	}
	return id, nil
}

// UpdateProduct меняет название, цену и описание.
func (r *Repository) UpdateProduct(ctx context.Context, id int64, name string, price float64, description string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET name = $2, price = $3, description = $4 WHERE id = $1`,
		id, name, price, description)
	if err != nil {
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrProductNotFound
	}
	return nil
}

// UpdateCreditsSettings меняет цену в кредитах и флаг оплаты кредитами.
func (r *Repository) UpdateCreditsSettings(ctx context.Context, id int64, creditsPrice *float64, creditsEnabled bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET credits_price = $2, credits_enabled = $3 WHERE id = $1`,
		id, creditsPrice, creditsEnabled)
	if err != nil {
		return fmt.Errorf("ошибка обновления настроек кредитов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrProductNotFound
	}
	return nil
}

// SetProductActive включает/выключает товар на витрине.
func (r *Repository) SetProductActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrProductNotFound
	}
	return nil
}

// DeleteProduct удаляет товар вместе со складом.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM stock WHERE product_id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления склада: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	return tx.Commit(ctx)
}

// AddStock добавляет позиции склада и возвращает количество добавленных.
func (r *Repository) AddStock(ctx context.Context, productID int64, payloads []string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	added := 0
	for _, payload := range payloads {
		_, err := tx.Exec(ctx,
			`INSERT INTO stock (product_id, payload) VALUES ($1, $2)`, productID, payload)
		if err != nil {
			return 0, fmt.Errorf("ошибка добавления позиции: %w", err)
		}
		added++
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка фиксации: %w", err)
	}
	return added, nil
}

// AvailableStock возвращает доступные позиции, старые первыми.
// Только для отображения: решение о выдаче принимает ReserveStock.
func (r *Repository) AvailableStock(ctx context.Context, productID int64, limit int) ([]*StockUnit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, payload, is_sold, buyer_id, batch_id, sold_at, created_at
		FROM stock
		WHERE product_id = $1 AND NOT is_sold
		ORDER BY id ASC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения склада: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

// ReserveStock атомарно закрепляет до quantity доступных позиций
// за покупателем, старые первыми (FIFO). Может вернуть меньше,
// чем запрошено — вызывающий обязан вернуть разницу деньгами.
//
// Отбор и пометка — одно выражение; FOR UPDATE SKIP LOCKED не даёт
// двум конкурентным резервациям увидеть одни и те же строки.
func (r *Repository) ReserveStock(ctx context.Context, productID int64, quantity int, buyerID int64) ([]*StockUnit, error) {
	batchID := uuid.New()
	rows, err := r.db.Query(ctx, `
		UPDATE stock SET is_sold = TRUE, buyer_id = $3, batch_id = $4, sold_at = NOW()
		WHERE id IN (
			SELECT id FROM stock
			WHERE product_id = $1 AND NOT is_sold
			ORDER BY id ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, product_id, payload, is_sold, buyer_id, batch_id, sold_at, created_at
	`, productID, quantity, buyerID, batchID)
	if err != nil {
		return nil, fmt.Errorf("ошибка резервации склада: %w", err)
	}
	defer rows.Close()
	return scanStockRows(rows)
}

// ReleaseStock возвращает позиции в продажу (откат резервации).
func (r *Repository) ReleaseStock(ctx context.Context, unitIDs []int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE stock SET is_sold = FALSE, buyer_id = NULL, batch_id = NULL, sold_at = NULL
		WHERE id = ANY($1)
	`, unitIDs)
	if err != nil {
		return fmt.Errorf("ошибка возврата позиций: %w", err)
	}
	return nil
}

// MarkStockSold финализирует позиции за покупателем.
// Нужен потокам, которые резервируют и подтверждают раздельно.
func (r *Repository) MarkStockSold(ctx context.Context, unitIDs []int64, buyerID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE stock SET is_sold = TRUE, buyer_id = $2, sold_at = NOW()
		WHERE id = ANY($1)
	`, unitIDs, buyerID)
	if err != nil {
		return fmt.Errorf("ошибка пометки позиций: %w", err)
	}
	return nil
}

// DeleteStock удаляет позицию, но только пока она не продана:
// история продаж неприкосновенна.
func (r *Repository) DeleteStock(ctx context.Context, unitID int64) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM stock WHERE id = $1 AND NOT is_sold`, unitID)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиции: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrStockNotAvailable
	}
	return nil
}

// ClearStock удаляет все доступные позиции товара, не трогая проданные.
func (r *Repository) ClearStock(ctx context.Context, productID int64) (int, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM stock WHERE product_id = $1 AND NOT is_sold`, productID)
	if err != nil {
		return 0, fmt.Errorf("ошибка очистки склада: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// StockStats возвращает сводку склада.
func (r *Repository) StockStats(ctx context.Context) (*StockStats, error) {
	var st StockStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE NOT is_sold),
		       COUNT(*) FILTER (WHERE is_sold)
		FROM stock
	`).Scan(&st.Total, &st.Available, &st.Sold)
	if err != nil {
		return nil, fmt.Errorf("ошибка сводки склада: %w", err)
	}
	return &st, nil
}

func scanStockRows(rows pgx.Rows) ([]*StockUnit, error) {
	var list []*StockUnit
	for rows.Next() {
		var u StockUnit
		err := rows.Scan(&u.ID, &u.ProductID, &u.Payload, &u.IsSold,
			&u.BuyerID, &u.BatchID, &u.SoldAt, &u.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования позиции: %w", err)
		}
		list = append(list, &u)
	}
	return list, rows.Err()
}
