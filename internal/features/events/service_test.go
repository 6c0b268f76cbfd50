package events

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-bot/internal/common"
)

// fakeEventStore держит события и журнал в памяти и повторяет
// семантику TryClaim: пересчёт лимитов по журналу перед вставкой.
type fakeEventStore struct {
	events map[int64]*Event
	claims []*Claim
	nextID int64
}

func newFakeEventStore(events ...*Event) *fakeEventStore {
	s := &fakeEventStore{events: make(map[int64]*Event), nextID: 1}
	for _, ev := range events {
		s.events[ev.ID] = ev
	}
	return s
}

func (s *fakeEventStore) Create(_ context.Context, ev *Event) (int64, error) {
	ev.ID = int64(len(s.events) + 1)
	s.events[ev.ID] = ev
	return ev.ID, nil
}

func (s *fakeEventStore) GetByID(_ context.Context, id int64) (*Event, error) {
	ev, ok := s.events[id]
	if !ok {
		return nil, common.ErrEventNotFound
	}
	return ev, nil
}

func (s *fakeEventStore) GetActiveByCode(_ context.Context, code string) (*Event, error) {
	upper := strings.ToUpper(code)
	for _, ev := range s.events {
		if ev.Code != nil && *ev.Code == upper && ev.IsActive {
			return ev, nil
		}
	}
	return nil, common.ErrEventNotFound
}

func (s *fakeEventStore) ListByType(_ context.Context, eventType string, activeOnly bool) ([]*Event, error) {
	var list []*Event
	for _, ev := range s.events {
		if ev.Type == eventType && (!activeOnly || ev.IsActive) {
			list = append(list, ev)
		}
	}
	return list, nil
}

func (s *fakeEventStore) ListAll(_ context.Context, activeOnly bool) ([]*Event, error) {
	var list []*Event
	for _, ev := range s.events {
		if !activeOnly || ev.IsActive {
			list = append(list, ev)
		}
	}
	return list, nil
}

func (s *fakeEventStore) UpdateEvent(_ context.Context, id int64, upd Update) error {
	ev, ok := s.events[id]
	if !ok {
		return common.ErrEventNotFound
	}
	if upd.IsActive != nil {
		ev.IsActive = *upd.IsActive
	}
	return nil
}

func (s *fakeEventStore) Delete(_ context.Context, id int64) error {
	delete(s.events, id)
	kept := s.claims[:0]
	for _, c := range s.claims {
		if c.EventID != id {
			kept = append(kept, c)
		}
	}
	s.claims = kept
	return nil
}

func (s *fakeEventStore) TryClaim(ctx context.Context, eventID, userID int64, amount float64, referenceID *string) (int64, float64, error) {
	ev, err := s.GetByID(ctx, eventID)
	if err != nil {
		return 0, 0, err
	}
	total, user := 0, 0
	for _, c := range s.claims {
		if c.EventID != eventID {
			continue
		}
		total++
		if c.UserID == userID {
			user++
		}
	}
	if err := CanClaim(ev, time.Now(), amount, total, user); err != nil {
		return 0, 0, err
	}
	reward := Reward(ev, amount)
	id := s.nextID
	s.nextID++
	s.claims = append(s.claims, &Claim{
		ID: id, EventID: eventID, UserID: userID, Amount: reward, ReferenceID: referenceID,
	})
	return id, reward, nil
}

func (s *fakeEventStore) DeleteClaim(_ context.Context, claimID int64) error {
	for i, c := range s.claims {
		if c.ID == claimID {
			s.claims = append(s.claims[:i], s.claims[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeEventStore) Stats(_ context.Context, eventID int64) (*Stats, error) {
	st := &Stats{}
	seen := map[int64]bool{}
	for _, c := range s.claims {
		if c.EventID != eventID {
			continue
		}
		st.Claims++
		st.TotalAmount += c.Amount
		if !seen[c.UserID] {
			seen[c.UserID] = true
			st.UniqueUsers++
		}
	}
	return st, nil
}

// fakeCredits считает начисления и умеет падать по команде.
type fakeCredits struct {
	granted map[int64]float64
	fail    bool
}

func newFakeCredits() *fakeCredits { return &fakeCredits{granted: make(map[int64]float64)} }

func (f *fakeCredits) AddCredits(_ context.Context, userID int64, amount float64, _, _ string) error {
	if f.fail {
		return errors.New("кошелёк недоступен")
	}
	f.granted[userID] += amount
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func promoEvent() *Event {
	code := "START10"
	return &Event{
		ID:           1,
		Code:         &code,
		Name:         "Старт",
		Type:         TypePromo,
		RewardAmount: 10,
		RewardType:   RewardFixed,
		MaxPerUser:   1,
		IsActive:     true,
	}
}

func TestService_ClaimPromoCode(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore(promoEvent())
	credits := newFakeCredits()
	svc := NewService(store, credits, testLogger())

	// Регистр и пробелы не мешают.
	reward, err := svc.ClaimPromoCode(ctx, 7, "  start10 ")
	require.NoError(t, err)
	assert.Equal(t, 10.0, reward)
	assert.Equal(t, 10.0, credits.granted[7])

	// Повторный ввод того же кода тем же пользователем.
	_, err = svc.ClaimPromoCode(ctx, 7, "START10")
	assert.ErrorIs(t, err, common.ErrEventAlreadyClaimed)
	assert.Equal(t, 10.0, credits.granted[7], "повторное начисление не произошло")

	// Другой пользователь получает свой бонус.
	_, err = svc.ClaimPromoCode(ctx, 8, "START10")
	require.NoError(t, err)
	assert.Equal(t, 10.0, credits.granted[8])
}

func TestService_ClaimPromoCode_Invalid(t *testing.T) {
	ctx := context.Background()
	deposit := promoEvent()
	deposit.Type = TypeDeposit // событие с кодом, но не промо
	store := newFakeEventStore(deposit)
	svc := NewService(store, newFakeCredits(), testLogger())

	_, err := svc.ClaimPromoCode(ctx, 1, "NOPE")
	assert.ErrorIs(t, err, common.ErrInvalidPromoCode)

	_, err = svc.ClaimPromoCode(ctx, 1, "")
	assert.ErrorIs(t, err, common.ErrInvalidPromoCode)

	_, err = svc.ClaimPromoCode(ctx, 1, "START10")
	assert.ErrorIs(t, err, common.ErrInvalidPromoCode)
}

func TestService_ClaimEvent_GlobalCap(t *testing.T) {
	ctx := context.Background()
	limit := 2
	ev := promoEvent()
	ev.MaxClaims = &limit
	store := newFakeEventStore(ev)
	svc := NewService(store, newFakeCredits(), testLogger())

	for user := int64(1); user <= 2; user++ {
		_, err := svc.ClaimEvent(ctx, ev.ID, user, 0, nil)
		require.NoError(t, err)
	}
	_, err := svc.ClaimEvent(ctx, ev.ID, 3, 0, nil)
	assert.ErrorIs(t, err, common.ErrEventMaxClaims)
}

func TestService_ClaimEvent_CompensatesOnWalletFailure(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore(promoEvent())
	credits := newFakeCredits()
	credits.fail = true
	svc := NewService(store, credits, testLogger())

	_, err := svc.ClaimEvent(ctx, 1, 7, 0, nil)
	require.Error(t, err)
	assert.Empty(t, store.claims, "запись о получении откатилась")

	// После восстановления кошелька попытка проходит.
	credits.fail = false
	reward, err := svc.ClaimEvent(ctx, 1, 7, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 10.0, reward)
}

func TestService_ProcessAutoEvents(t *testing.T) {
	ctx := context.Background()
	percent := &Event{
		ID: 2, Name: "Депозит +10%", Type: TypeDeposit,
		RewardAmount: 10, RewardType: RewardPercent,
		MinAmount: 5, MaxPerUser: 1, IsActive: true,
	}
	fixed := &Event{
		ID: 3, Name: "Первый депозит", Type: TypeDeposit,
		RewardAmount: 2, RewardType: RewardFixed,
		MaxPerUser: 1, IsActive: true,
	}
	inactive := &Event{
		ID: 4, Name: "Выключено", Type: TypeDeposit,
		RewardAmount: 100, RewardType: RewardFixed,
		MaxPerUser: 1, IsActive: false,
	}
	store := newFakeEventStore(percent, fixed, inactive)
	credits := newFakeCredits()
	svc := NewService(store, credits, testLogger())

	ref := "deposit:42"
	bonuses := svc.ProcessAutoEvents(ctx, 7, TypeDeposit, 20, &ref)
	require.Len(t, bonuses, 2)
	assert.Equal(t, 4.0, credits.granted[7], "2 за фиксированный плюс 10% от 20")

	// Сумма ниже минимума процентного события: достаётся только фиксированный.
	bonuses = svc.ProcessAutoEvents(ctx, 8, TypeDeposit, 3, &ref)
	require.Len(t, bonuses, 1)
	assert.Equal(t, "Первый депозит", bonuses[0].EventName)

	// Повторное пополнение: все лимиты на пользователя исчерпаны.
	bonuses = svc.ProcessAutoEvents(ctx, 7, TypeDeposit, 50, &ref)
	assert.Empty(t, bonuses)
}

func TestService_CreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newFakeEventStore(), newFakeCredits(), testLogger())

	_, err := svc.Create(ctx, &Event{Type: TypeWelcome, RewardAmount: 0, RewardType: RewardFixed})
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = svc.Create(ctx, &Event{Type: TypeWelcome, RewardAmount: 5, RewardType: "gift"})
	assert.Error(t, err)

	ev := &Event{Type: TypeWelcome, RewardAmount: 5, RewardType: RewardFixed}
	_, err = svc.Create(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.MaxPerUser, "лимит на пользователя по умолчанию")
}

func TestService_Stats(t *testing.T) {
	ctx := context.Background()
	ev := promoEvent()
	ev.MaxPerUser = 2
	store := newFakeEventStore(ev)
	svc := NewService(store, newFakeCredits(), testLogger())

	for i := 0; i < 2; i++ {
		_, err := svc.ClaimEvent(ctx, ev.ID, 7, 0, nil)
		require.NoError(t, err)
	}
	_, err := svc.ClaimEvent(ctx, ev.ID, 8, 0, nil)
	require.NoError(t, err)

	st, err := svc.Stats(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, &Stats{Claims: 3, TotalAmount: 30, UniqueUsers: 2}, st)
}
