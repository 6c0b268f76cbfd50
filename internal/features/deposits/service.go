package deposits

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"shop-bot/internal/common"
	"shop-bot/internal/features/events"
	"shop-bot/internal/payment"
)

// Store — хранилище заявок на пополнение.
type Store interface {
	Create(ctx context.Context, d *PendingDeposit) (int64, error)
	GetByCode(ctx context.Context, code string) (*PendingDeposit, error)
	GetByID(ctx context.Context, id int64) (*PendingDeposit, error)
	ListPending(ctx context.Context) ([]*PendingDeposit, error)
	TransitionFromPending(ctx context.Context, id int64, status string) (bool, error)
}

// WalletDeposit — зачисление на баланс.
type WalletDeposit interface {
	Deposit(ctx context.Context, userID int64, amount float64, method, note string) error
}

// ReferralBonus — проверка бонуса пригласившему после пополнения.
type ReferralBonus interface {
	ProcessReferrerBonus(ctx context.Context, userID int64, depositAmount float64) error
}

// Bonuses — автоматические события за пополнение.
type Bonuses interface {
	ProcessAutoEvents(ctx context.Context, userID int64, eventType string, amount float64, referenceID *string) []events.ClaimedBonus
}

// Notifier отправляет пользователю сообщение. Отправка — fire-and-forget:
// сверка не должна падать из-за недоставленного уведомления.
type Notifier interface {
	Notify(chatID int64, text string)
}

// Service управляет заявками и их сверкой с провайдерами.
type Service struct {
	store    Store
	gateways []payment.Gateway
	wallet   WalletDeposit
	referral ReferralBonus
	events   Bonuses
	notifier Notifier
	rate     float64 // Курс VND → USDT
	expires  time.Duration
	log      *logrus.Logger
}

// NewService создаёт сервис пополнений.
func NewService(store Store, gateways []payment.Gateway, w WalletDeposit, ref ReferralBonus, ev Bonuses, n Notifier, vndRate float64, expires time.Duration, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		gateways: gateways,
		wallet:   w,
		referral: ref,
		events:   ev,
		notifier: n,
		rate:     vndRate,
		expires:  expires,
		log:      log,
	}
}

func (s *Service) gateway(method string) payment.Gateway {
	for _, gw := range s.gateways {
		if gw.Name() == method && gw.IsConfigured() {
			return gw
		}
	}
	return nil
}

// AvailableMethods возвращает настроенные способы пополнения.
func (s *Service) AvailableMethods() []Method {
	var methods []Method
	for _, gw := range s.gateways {
		if !gw.IsConfigured() {
			continue
		}
		name := gw.Name()
		switch name {
		case payment.MethodBinance:
			methods = append(methods, Method{ID: name, Name: "Binance Pay", Currency: gw.Currency()})
		case payment.MethodBank:
			methods = append(methods, Method{ID: name, Name: "Chuyển khoản ngân hàng", Currency: gw.Currency()})
		}
	}
	return methods
}

// CreateDeposit открывает заявку и возвращает платёжную инструкцию.
func (s *Service) CreateDeposit(ctx context.Context, userID int64, amount float64, method string, chatID int64) (*Created, error) {
	if amount <= 0 {
		return nil, common.ErrInvalidAmount
	}
	gw := s.gateway(method)
	if gw == nil {
		return nil, common.ErrGatewayNotConfigured
	}

	d := &PendingDeposit{
		UserID:        userID,
		Amount:        amount,
		Currency:      gw.Currency(),
		PaymentMethod: method,
		PaymentCode:   common.GenerateCode(8),
		ChatID:        chatID,
		Status:        StatusPending,
		ExpiresAt:     time.Now().Add(s.expires),
	}
	var err error
	d.ID, err = s.store.Create(ctx, d)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"deposit_id": d.ID,
		"method":     method,
		"amount":     amount,
	}).Info("Заявка на пополнение создана")

	return &Created{Deposit: d, Instructions: gw.Instructions(amount, d.PaymentCode)}, nil
}

// CheckDeposit — ручная проверка заявки пользователем.
// Просроченная заявка закрывается без обращения к провайдеру.
func (s *Service) CheckDeposit(ctx context.Context, code string) (*CheckResult, error) {
	d, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if d.Status != StatusPending {
		return &CheckResult{Deposit: d}, nil
	}
	if d.Expired(time.Now()) {
		if _, err := s.store.TransitionFromPending(ctx, d.ID, StatusExpired); err != nil {
			return nil, err
		}
		d.Status = StatusExpired
		return &CheckResult{Deposit: d}, nil
	}

	gw := s.gateway(d.PaymentMethod)
	if gw == nil {
		return nil, common.ErrGatewayNotConfigured
	}
	if gw.CheckPayment(ctx, d.PaymentCode, d.Amount) == nil {
		return &CheckResult{Deposit: d}, nil
	}

	conf, err := s.complete(ctx, d)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		// Гонку выиграла фоновая сверка — зачисление уже было.
		return &CheckResult{Deposit: d}, nil
	}
	return &CheckResult{
		Deposit:   d,
		Confirmed: true,
		Credited:  conf.Credited,
		Bonuses:   conf.Bonuses,
	}, nil
}

// CheckPendingDeposits — фоновая сверка всех открытых заявок.
// Возвращает зачисленные этим проходом пополнения.
func (s *Service) CheckPendingDeposits(ctx context.Context) []*Confirmation {
	pending, err := s.store.ListPending(ctx)
	if err != nil {
		s.log.WithError(err).Error("Не удалось получить открытые заявки")
		return nil
	}

	now := time.Now()
	var confirmed []*Confirmation
	for _, d := range pending {
		if d.Expired(now) {
			if _, err := s.store.TransitionFromPending(ctx, d.ID, StatusExpired); err != nil {
				s.log.WithError(err).WithField("deposit_id", d.ID).Error("Не удалось закрыть просроченную заявку")
			}
			continue
		}

		gw := s.gateway(d.PaymentMethod)
		if gw == nil {
			s.log.WithField("method", d.PaymentMethod).Warn("Шлюз заявки не настроен, пропускаем")
			continue
		}
		if gw.CheckPayment(ctx, d.PaymentCode, d.Amount) == nil {
			continue
		}

		conf, err := s.complete(ctx, d)
		if err != nil {
			s.log.WithError(err).WithField("deposit_id", d.ID).Error("Ошибка зачисления пополнения")
			continue
		}
		if conf == nil {
			continue
		}
		confirmed = append(confirmed, conf)
		if s.notifier != nil {
			s.notifier.Notify(d.ChatID, confirmationText(conf))
		}
	}
	return confirmed
}

// complete проводит переход pending → completed и побочные эффекты.
// Возвращает nil, если переход выиграл кто-то другой: проигравший
// не зачисляет, не трогает рефералку и события.
func (s *Service) complete(ctx context.Context, d *PendingDeposit) (*Confirmation, error) {
	won, err := s.store.TransitionFromPending(ctx, d.ID, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, nil
	}
	d.Status = StatusCompleted

	credited := d.Amount
	if d.PaymentMethod == payment.MethodBank {
		credited = d.Amount / s.rate
	}

	note := fmt.Sprintf("Deposit via %s", d.PaymentMethod)
	if err := s.wallet.Deposit(ctx, d.UserID, credited, d.PaymentMethod, note); err != nil {
		// Статус уже completed, а денег нет — худший исход.
		// Логируем громко, оператору придётся зачислить вручную.
		s.log.WithError(err).WithFields(logrus.Fields{
			"deposit_id": d.ID,
			"user_id":    d.UserID,
			"amount":     credited,
		}).Error("Заявка закрыта, но зачисление не прошло")
		return nil, err
	}

	if err := s.referral.ProcessReferrerBonus(ctx, d.UserID, credited); err != nil {
		s.log.WithError(err).WithField("user_id", d.UserID).Error("Ошибка реферального бонуса")
	}
	ref := fmt.Sprintf("deposit:%d", d.ID)
	bonuses := s.events.ProcessAutoEvents(ctx, d.UserID, events.TypeDeposit, credited, &ref)

	s.log.WithFields(logrus.Fields{
		"deposit_id": d.ID,
		"user_id":    d.UserID,
		"credited":   credited,
		"method":     d.PaymentMethod,
	}).Info("Пополнение зачислено")

	return &Confirmation{Deposit: d, Credited: credited, Bonuses: bonuses}, nil
}

// CancelDeposit закрывает заявку по желанию пользователя.
// Отменить можно только открытую заявку.
func (s *Service) CancelDeposit(ctx context.Context, code string) error {
	d, err := s.store.GetByCode(ctx, code)
	if err != nil {
		return err
	}
	won, err := s.store.TransitionFromPending(ctx, d.ID, StatusCancelled)
	if err != nil {
		return err
	}
	if !won {
		return common.ErrDepositNotPending
	}
	s.log.WithFields(logrus.Fields{"deposit_id": d.ID, "user_id": d.UserID}).Info("Заявка отменена")
	return nil
}

// GetByID возвращает заявку (админка).
func (s *Service) GetByID(ctx context.Context, id int64) (*PendingDeposit, error) {
	return s.store.GetByID(ctx, id)
}

func confirmationText(conf *Confirmation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Deposit confirmed!\n+%s USDT", common.FormatNumber(conf.Credited))
	if len(conf.Bonuses) > 0 {
		b.WriteString("\n\n🎁 BONUS:")
		for _, bonus := range conf.Bonuses {
			fmt.Fprintf(&b, "\n• %s: +%s credits", bonus.EventName, common.FormatNumber(bonus.Amount))
		}
	}
	return b.String()
}
