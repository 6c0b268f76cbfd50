// Package catalog — service.go содержит бизнес-логику каталога и склада.
package catalog

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"shop-bot/internal/common"
)

// Store — операции хранилища каталога. Реализуется *Repository.
type Store interface {
	ListProducts(ctx context.Context, activeOnly bool) ([]*Product, error)
	GetProduct(ctx context.Context, id int64) (*Product, error)
	CreateProduct(ctx context.Context, name string, price float64, description string, creditsPrice *float64, creditsEnabled bool) (int64, error)
	UpdateProduct(ctx context.Context, id int64, name string, price float64, description string) error
	UpdateCreditsSettings(ctx context.Context, id int64, creditsPrice *float64, creditsEnabled bool) error
	SetProductActive(ctx context.Context, id int64, active bool) error
	DeleteProduct(ctx context.Context, id int64) error
	AddStock(ctx context.Context, productID int64, payloads []string) (int, error)
	AvailableStock(ctx context.Context, productID int64, limit int) ([]*StockUnit, error)
	ReserveStock(ctx context.Context, productID int64, quantity int, buyerID int64) ([]*StockUnit, error)
	ReleaseStock(ctx context.Context, unitIDs []int64) error
	MarkStockSold(ctx context.Context, unitIDs []int64, buyerID int64) error
	DeleteStock(ctx context.Context, unitID int64) error
	ClearStock(ctx context.Context, productID int64) (int, error)
	StockStats(ctx context.Context) (*StockStats, error)
}

// Service управляет товарами и складом.
type Service struct {
	store Store
}

// NewService создаёт сервис каталога.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListProducts возвращает товары витрины.
func (s *Service) ListProducts(ctx context.Context, activeOnly bool) ([]*Product, error) {
	return s.store.ListProducts(ctx, activeOnly)
}

// GetProduct возвращает товар по ID.
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return s.store.GetProduct(ctx, id)
}

// CreateProduct добавляет товар.
func (s *Service) CreateProduct(ctx context.Context, name string, price float64, description string, creditsPrice *float64, creditsEnabled bool) (int64, error) {
	if price <= 0 {
		return 0, common.ErrInvalidAmount
	}
	id, err := s.store.CreateProduct(ctx, name, price, description, creditsPrice, creditsEnabled)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"product_id": id, "name": name}).Info("Товар создан")
	return id, nil
}

// UpdateProduct меняет название, цену и описание товара.
func (s *Service) UpdateProduct(ctx context.Context, id int64, name string, price float64, description string) error {
	if price <= 0 {
		return common.ErrInvalidAmount
	}
	return s.store.UpdateProduct(ctx, id, name, price, description)
}

// UpdateCreditsSettings меняет цену в кредитах и флаг оплаты кредитами.
func (s *Service) UpdateCreditsSettings(ctx context.Context, id int64, creditsPrice *float64, creditsEnabled bool) error {
	if creditsPrice != nil && *creditsPrice <= 0 {
		return common.ErrInvalidAmount
	}
	return s.store.UpdateCreditsSettings(ctx, id, creditsPrice, creditsEnabled)
}

// SetProductActive включает/выключает товар.
func (s *Service) SetProductActive(ctx context.Context, id int64, active bool) error {
	return s.store.SetProductActive(ctx, id, active)
}

// DeleteProduct удаляет товар вместе со складом.
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	return s.store.DeleteProduct(ctx, id)
}

// FilterPayloads отбрасывает пустые строки и обрезает пробелы.
// Склад пополняется вставкой текста «одна позиция — одна строка»,
// пустые строки в таком тексте неизбежны.
func FilterPayloads(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// AddStock добавляет позиции склада, пропуская пустые строки.
// Возвращает число реально добавленных позиций.
func (s *Service) AddStock(ctx context.Context, productID int64, payloads []string) (int, error) {
	filtered := FilterPayloads(payloads)
	if len(filtered) == 0 {
		return 0, nil
	}
	added, err := s.store.AddStock(ctx, productID, filtered)
	if err != nil {
		return 0, err
	}
	log.WithFields(log.Fields{"product_id": productID, "added": added}).Info("Склад пополнен")
	return added, nil
}

// AvailableStock возвращает доступные позиции (для отображения).
func (s *Service) AvailableStock(ctx context.Context, productID int64, limit int) ([]*StockUnit, error) {
	if limit <= 0 {
		limit = 1
	}
	return s.store.AvailableStock(ctx, productID, limit)
}

// ReserveStock атомарно резервирует до quantity позиций за покупателем.
// Может вернуть меньше запрошенного; пустой результат означает,
// что доступных позиций не осталось.
func (s *Service) ReserveStock(ctx context.Context, productID int64, quantity int, buyerID int64) ([]*StockUnit, error) {
	if quantity <= 0 {
		return nil, nil
	}
	units, err := s.store.ReserveStock(ctx, productID, quantity, buyerID)
	if err != nil {
		return nil, err
	}
	if len(units) < quantity {
		log.WithFields(log.Fields{
			"product_id": productID,
			"requested":  quantity,
			"reserved":   len(units),
		}).Warn("Резервация неполная")
	}
	return units, nil
}

// ReleaseStock возвращает позиции в продажу.
func (s *Service) ReleaseStock(ctx context.Context, unitIDs []int64) error {
	if len(unitIDs) == 0 {
		return nil
	}
	return s.store.ReleaseStock(ctx, unitIDs)
}

// MarkStockSold финализирует позиции за покупателем.
func (s *Service) MarkStockSold(ctx context.Context, unitIDs []int64, buyerID int64) error {
	if len(unitIDs) == 0 {
		return nil
	}
	return s.store.MarkStockSold(ctx, unitIDs, buyerID)
}

// DeleteStock удаляет непроданную позицию.
func (s *Service) DeleteStock(ctx context.Context, unitID int64) error {
	return s.store.DeleteStock(ctx, unitID)
}

// ClearStock удаляет все доступные позиции товара.
func (s *Service) ClearStock(ctx context.Context, productID int64) (int, error) {
	return s.store.ClearStock(ctx, productID)
}

// StockStats возвращает сводку склада.
func (s *Service) StockStats(ctx context.Context) (*StockStats, error) {
	return s.store.StockStats(ctx)
}
