package orders

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"shop-bot/internal/common"
	"shop-bot/internal/features/catalog"
	"shop-bot/internal/features/events"
	"shop-bot/internal/features/wallet"
)

// Store — хранилище заказов.
type Store interface {
	Create(ctx context.Context, o *Order) (int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]*Order, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Catalog — операции каталога и склада, нужные покупке.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ReserveStock(ctx context.Context, productID int64, quantity int, buyerID int64) ([]*catalog.StockUnit, error)
}

// Wallet — операции кошелька, нужные покупке.
type Wallet interface {
	Purchase(ctx context.Context, userID int64, amount float64, method string) (*wallet.PurchaseResult, error)
	Refund(ctx context.Context, userID int64, amount float64, toWallet, note string) error
}

// Bonuses — автоматические события за покупку.
type Bonuses interface {
	ProcessAutoEvents(ctx context.Context, userID int64, eventType string, amount float64, referenceID *string) []events.ClaimedBonus
}

// Service оформляет покупки.
type Service struct {
	store   Store
	catalog Catalog
	wallet  Wallet
	events  Bonuses
	log     *logrus.Logger
}

// NewService создаёт сервис заказов.
func NewService(store Store, cat Catalog, w Wallet, ev Bonuses, log *logrus.Logger) *Service {
	return &Service{store: store, catalog: cat, wallet: w, events: ev, log: log}
}

// Purchase проводит покупку целиком: списание, резерв склада,
// откат при нехватке, запись заказа и бонусы за покупку.
//
// Порядок жёсткий: сначала деньги, потом склад. Если склад выдал
// меньше запрошенного — возвращается разница за недостающие позиции,
// если не выдал ничего — вся сумма, и покупка завершается ошибкой.
func (s *Service) Purchase(ctx context.Context, userID, productID int64, quantity int, method string, chatID int64) (*Result, error) {
	if quantity <= 0 {
		return nil, common.ErrInvalidAmount
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, common.ErrProductInactive
	}
	if method == wallet.PayCredits && !product.CreditsEnabled {
		return nil, common.ErrCreditsNotAccepted
	}

	unitPrice := product.PriceFor(method)
	totalPrice := unitPrice * float64(quantity)

	paid, err := s.wallet.Purchase(ctx, userID, totalPrice, method)
	if err != nil {
		return nil, err
	}

	units, err := s.catalog.ReserveStock(ctx, productID, quantity, userID)
	if err != nil {
		s.refundSplit(ctx, userID, totalPrice, paid, fmt.Sprintf("Order failed: %s", product.Name))
		return nil, err
	}
	if len(units) == 0 {
		s.refundSplit(ctx, userID, totalPrice, paid, fmt.Sprintf("Out of stock: %s", product.Name))
		return nil, common.ErrOutOfStock
	}

	// Частичная выдача: возвращаем разницу и оформляем то, что есть.
	if len(units) < quantity {
		delta := unitPrice * float64(quantity-len(units))
		s.refundSplit(ctx, userID, delta, paid, fmt.Sprintf("Partial order: %s", product.Name))
		totalPrice = unitPrice * float64(len(units))
		s.log.WithFields(logrus.Fields{
			"user_id":   userID,
			"product":   productID,
			"requested": quantity,
			"fulfilled": len(units),
		}).Warn("Заказ выдан не полностью")
	}

	order := &Order{
		UserID:        userID,
		ProductID:     productID,
		ProductName:   product.Name,
		Quantity:      len(units),
		UnitPrice:     unitPrice,
		TotalPrice:    totalPrice,
		PaymentMethod: method,
		Status:        StatusCompleted,
		ChatID:        chatID,
	}
	order.ID, err = s.store.Create(ctx, order)
	if err != nil {
		// Деньги списаны и позиции выданы; заказ не записался —
		// покупатель не должен страдать из-за учёта.
		s.log.WithError(err).WithField("user_id", userID).Error("Не удалось записать заказ")
	}

	ref := fmt.Sprintf("order:%d", order.ID)
	bonuses := s.events.ProcessAutoEvents(ctx, userID, events.TypePurchase, totalPrice, &ref)

	payloads := make([]string, 0, len(units))
	for _, u := range units {
		payloads = append(payloads, u.Payload)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"order_id": order.ID,
		"quantity": len(units),
		"total":    totalPrice,
		"method":   method,
	}).Info("Заказ оформлен")

	return &Result{
		Order:     order,
		Payloads:  payloads,
		Bonuses:   bonuses,
		Requested: quantity,
		Fulfilled: len(units),
	}, nil
}

// refundSplit возвращает сумму в те кошельки, из которых она была
// списана: сначала балансовая часть, остаток — кредитами.
func (s *Service) refundSplit(ctx context.Context, userID int64, amount float64, paid *wallet.PurchaseResult, note string) {
	fromBalance := math.Min(amount, paid.UsedBalance)
	fromCredits := amount - fromBalance

	if fromBalance > 0 {
		if err := s.wallet.Refund(ctx, userID, fromBalance, wallet.PayBalance, note); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Error("Не удалось вернуть баланс")
		}
	}
	if fromCredits > 0 {
		if err := s.wallet.Refund(ctx, userID, fromCredits, wallet.PayCredits, note); err != nil {
			s.log.WithError(err).WithField("user_id", userID).Error("Не удалось вернуть кредиты")
		}
	}
}

// GetByID возвращает заказ.
func (s *Service) GetByID(ctx context.Context, id int64) (*Order, error) {
	return s.store.GetByID(ctx, id)
}

// ListByUser возвращает последние заказы пользователя.
func (s *Service) ListByUser(ctx context.Context, userID int64, limit int) ([]*Order, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.store.ListByUser(ctx, userID, limit)
}

// Stats возвращает сводку по заказам (админка).
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}
