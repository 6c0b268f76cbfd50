package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"shop-bot/internal/common"
	"shop-bot/internal/features/wallet"
)

// Store описывает хранилище событий и журнала получений.
type Store interface {
	Create(ctx context.Context, ev *Event) (int64, error)
	GetByID(ctx context.Context, id int64) (*Event, error)
	GetActiveByCode(ctx context.Context, code string) (*Event, error)
	ListByType(ctx context.Context, eventType string, activeOnly bool) ([]*Event, error)
	ListAll(ctx context.Context, activeOnly bool) ([]*Event, error)
	UpdateEvent(ctx context.Context, id int64, upd Update) error
	Delete(ctx context.Context, id int64) error
	TryClaim(ctx context.Context, eventID, userID int64, triggeringAmount float64, referenceID *string) (int64, float64, error)
	DeleteClaim(ctx context.Context, claimID int64) error
	Stats(ctx context.Context, eventID int64) (*Stats, error)
}

// CreditAdder начисляет кредиты — его реализует кошелёк.
type CreditAdder interface {
	AddCredits(ctx context.Context, userID int64, amount float64, txType, note string) error
}

// Service содержит бизнес-логику событий и бонусов.
type Service struct {
	store  Store
	wallet CreditAdder
	log    *logrus.Logger
}

// NewService создаёт сервис событий.
func NewService(store Store, wallet CreditAdder, log *logrus.Logger) *Service {
	return &Service{store: store, wallet: wallet, log: log}
}

// ClaimEvent пытается выдать бонус события пользователю.
// Запись в журнале — единственный источник правды о выдаче:
// сначала TryClaim (атомарная проверка и вставка), затем начисление.
// Если начисление не удалось, запись компенсируется, иначе повторная
// попытка была бы навсегда заблокирована журналом.
func (s *Service) ClaimEvent(ctx context.Context, eventID, userID int64, triggeringAmount float64, referenceID *string) (float64, error) {
	claimID, reward, err := s.store.TryClaim(ctx, eventID, userID, triggeringAmount, referenceID)
	if err != nil {
		return 0, err
	}

	ev, err := s.store.GetByID(ctx, eventID)
	if err != nil {
		// Событие только что было под блокировкой, сюда попадать не должны.
		ev = &Event{Name: fmt.Sprintf("#%d", eventID)}
	}

	if reward > 0 {
		note := fmt.Sprintf("Event: %s", ev.Name)
		if err := s.wallet.AddCredits(ctx, userID, reward, wallet.TxTypeEvent, note); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"user_id":  userID,
				"event_id": eventID,
				"claim_id": claimID,
			}).Error("Не удалось начислить бонус, откатываем запись")
			if delErr := s.store.DeleteClaim(ctx, claimID); delErr != nil {
				s.log.WithError(delErr).WithField("claim_id", claimID).
					Error("Не удалось откатить запись о получении")
			}
			return 0, fmt.Errorf("ошибка начисления бонуса: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"event_id": eventID,
		"reward":   reward,
	}).Info("Бонус события выдан")
	return reward, nil
}

// ClaimPromoCode выдаёт бонус по промокоду. Код должен принадлежать
// активному событию типа promo, иначе это не промокод.
func (s *Service) ClaimPromoCode(ctx context.Context, userID int64, code string) (float64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, common.ErrInvalidPromoCode
	}
	ev, err := s.store.GetActiveByCode(ctx, code)
	if errors.Is(err, common.ErrEventNotFound) {
		return 0, common.ErrInvalidPromoCode
	}
	if err != nil {
		return 0, err
	}
	if ev.Type != TypePromo {
		return 0, common.ErrInvalidPromoCode
	}
	return s.ClaimEvent(ctx, ev.ID, userID, 0, nil)
}

// ProcessAutoEvents пробует все активные события типа для пользователя
// и возвращает список выданных бонусов. Неудача одного события не
// мешает остальным: лимиты и окна у каждого свои.
func (s *Service) ProcessAutoEvents(ctx context.Context, userID int64, eventType string, amount float64, referenceID *string) []ClaimedBonus {
	list, err := s.store.ListByType(ctx, eventType, true)
	if err != nil {
		s.log.WithError(err).WithField("type", eventType).
			Error("Не удалось получить список событий")
		return nil
	}

	var claimed []ClaimedBonus
	for _, ev := range list {
		reward, err := s.ClaimEvent(ctx, ev.ID, userID, amount, referenceID)
		if err != nil {
			// Тишина: пользователь просто не подошёл под условия.
			continue
		}
		claimed = append(claimed, ClaimedBonus{EventName: ev.Name, Amount: reward})
	}
	return claimed
}

// Create проверяет и создаёт событие.
func (s *Service) Create(ctx context.Context, ev *Event) (int64, error) {
	if ev.RewardAmount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if ev.RewardType != RewardFixed && ev.RewardType != RewardPercent {
		return 0, fmt.Errorf("неизвестный тип награды: %s", ev.RewardType)
	}
	if ev.MaxPerUser <= 0 {
		ev.MaxPerUser = 1
	}
	id, err := s.store.Create(ctx, ev)
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"event_id": id, "type": ev.Type}).Info("Событие создано")
	return id, nil
}

// GetByID возвращает событие.
func (s *Service) GetByID(ctx context.Context, id int64) (*Event, error) {
	return s.store.GetByID(ctx, id)
}

// List возвращает все события.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Event, error) {
	return s.store.ListAll(ctx, activeOnly)
}

// Update применяет частичное обновление события.
func (s *Service) Update(ctx context.Context, id int64, upd Update) error {
	return s.store.UpdateEvent(ctx, id, upd)
}

// SetActive включает или выключает событие.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) error {
	return s.store.UpdateEvent(ctx, id, Update{IsActive: &active})
}

// Delete удаляет событие вместе с журналом.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("event_id", id).Info("Событие удалено")
	return nil
}

// Stats возвращает сводку по событию.
func (s *Service) Stats(ctx context.Context, id int64) (*Stats, error) {
	if _, err := s.store.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Stats(ctx, id)
}
