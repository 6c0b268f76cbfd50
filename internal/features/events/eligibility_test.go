package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shop-bot/internal/common"
)

func activeEvent() *Event {
	return &Event{
		ID:           1,
		Name:         "Welcome",
		Type:         TypeWelcome,
		RewardAmount: 5,
		RewardType:   RewardFixed,
		MaxPerUser:   1,
		IsActive:     true,
	}
}

func TestCanClaim_Order(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := 10

	tests := []struct {
		name    string
		mutate  func(*Event)
		amount  float64
		total   int
		user    int
		wantErr error
	}{
		{name: "ok", mutate: func(*Event) {}},
		{
			name:    "inactive",
			mutate:  func(ev *Event) { ev.IsActive = false },
			wantErr: common.ErrEventInactive,
		},
		{
			name:    "not started",
			mutate:  func(ev *Event) { ev.StartDate = &future },
			wantErr: common.ErrEventNotStarted,
		},
		{
			name:    "ended",
			mutate:  func(ev *Event) { ev.EndDate = &past },
			wantErr: common.ErrEventEnded,
		},
		{
			name:    "below min amount",
			mutate:  func(ev *Event) { ev.MinAmount = 5 },
			amount:  4.99,
			wantErr: common.ErrEventMinAmount,
		},
		{
			name:    "global cap reached",
			mutate:  func(ev *Event) { ev.MaxClaims = &limit },
			total:   10,
			wantErr: common.ErrEventMaxClaims,
		},
		{
			name:    "already claimed",
			mutate:  func(*Event) {},
			user:    1,
			wantErr: common.ErrEventAlreadyClaimed,
		},
		{
			// Неактивность сообщается раньше исчерпанного лимита.
			name: "inactive wins over cap",
			mutate: func(ev *Event) {
				ev.IsActive = false
				ev.MaxClaims = &limit
			},
			total:   10,
			wantErr: common.ErrEventInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := activeEvent()
			tt.mutate(ev)
			err := CanClaim(ev, now, tt.amount, tt.total, tt.user)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCanClaim_UnlimitedPerUser(t *testing.T) {
	ev := activeEvent()
	ev.MaxPerUser = 0 // без лимита на пользователя
	assert.NoError(t, CanClaim(ev, time.Now(), 0, 0, 100))
}

func TestReward(t *testing.T) {
	fixed := activeEvent()
	assert.Equal(t, 5.0, Reward(fixed, 0))
	assert.Equal(t, 5.0, Reward(fixed, 1000))

	percent := activeEvent()
	percent.RewardType = RewardPercent
	percent.RewardAmount = 10
	assert.Equal(t, 2.0, Reward(percent, 20))
	assert.Equal(t, 0.0, Reward(percent, 0))
	assert.Equal(t, 0.0, Reward(percent, -5))
}
