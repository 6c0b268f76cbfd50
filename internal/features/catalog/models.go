// Package catalog управляет товарами и складом цифровых позиций.
// models.go описывает товар и единицу склада.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Product — товар витрины. Количество на складе не хранится
// в товаре, а выводится подсчётом непроданных позиций.
type Product struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name"`
	Price          float64   `db:"price"`           // Цена в USDT-эквиваленте
	CreditsPrice   *float64  `db:"credits_price"`   // Цена в кредитах (nil — как Price)
	CreditsEnabled bool      `db:"credits_enabled"` // Можно ли платить кредитами
	Description    string    `db:"description"`
	IsActive       bool      `db:"is_active"`
	StockCount     int       `db:"stock_count"` // Производное: доступно на складе
	CreatedAt      time.Time `db:"created_at"`
}

// PriceFor возвращает цену за единицу для способа оплаты.
func (p *Product) PriceFor(method string) float64 {
	if method == "credits" && p.CreditsPrice != nil {
		return *p.CreditsPrice
	}
	return p.Price
}

// StockUnit — одна единица склада: непрозрачная строка с данными
// (например, логин:пароль аккаунта). Проданная позиция навсегда
// закреплена за покупателем и не может быть выдана повторно.
type StockUnit struct {
	ID          int64      `db:"id"`
	ProductID   int64      `db:"product_id"`
	Payload     string     `db:"payload"`  // Содержимое, выдаваемое покупателю
	IsSold      bool       `db:"is_sold"`
	BuyerID     *int64     `db:"buyer_id"`
	BatchID     *uuid.UUID `db:"batch_id"` // Маркер резервации (один вызов = один batch)
	SoldAt      *time.Time `db:"sold_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// StockStats — сводка склада для админки.
type StockStats struct {
	Total     int
	Available int
	Sold      int
}
