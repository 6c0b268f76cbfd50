// Package orders — оформление покупки: списание средств, резерв
// склада, откат при нехватке позиций и запись заказа.
package orders

import (
	"time"

	"shop-bot/internal/features/events"
)

// Статусы заказа.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Order — снимок покупки. Quantity отражает фактически выданное
// количество, оно может быть меньше запрошенного.
type Order struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	ProductID     int64     `db:"product_id"`
	ProductName   string    `db:"product_name"` // Денормализовано для истории
	Quantity      int       `db:"quantity"`
	UnitPrice     float64   `db:"unit_price"`
	TotalPrice    float64   `db:"total_price"`
	PaymentMethod string    `db:"payment_method"`
	Status        string    `db:"status"`
	ChatID        int64     `db:"chat_id"`
	CreatedAt     time.Time `db:"created_at"`
}

// Result — итог покупки для ответа пользователю.
type Result struct {
	Order     *Order
	Payloads  []string              // Содержимое выданных позиций
	Bonuses   []events.ClaimedBonus // Сработавшие бонусы за покупку
	Requested int                   // Сколько просили
	Fulfilled int                   // Сколько выдали
}

// Short сообщает, что заказ выдан не полностью.
func (r *Result) Short() bool {
	return r.Fulfilled < r.Requested
}

// Stats — сводка по заказам для админки.
type Stats struct {
	Total        int     // Всего заказов
	TotalRevenue float64 // Сумма завершённых заказов
	Today        int     // Заказов за сегодня
}
