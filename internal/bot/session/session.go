// Package session хранит состояние многошаговых диалогов.
// Когда пользователь или админ находится «в середине ввода»
// (вводит реферальный код, сумму пополнения, данные товара),
// здесь запоминается, какой именно шаг он выполняет.
//
// Жизненный цикл: запись создаётся при первом шаге диалога
// и удаляется при завершении или отмене. Хранилище передаётся
// обработчикам явно, а не живёт глобальной переменной.
package session

import "sync"

// Действия многошаговых диалогов.
const (
	ActionEnterReferral   = "enter_referral"
	ActionEnterPromoCode  = "enter_promo_code"
	ActionEnterDepositSum = "enter_deposit_amount"
	ActionAdminPassword   = "admin_password"
	ActionAdminAddProduct = "admin_add_product"
	ActionAdminAddStock   = "admin_add_stock"
	ActionAdminAddBalance = "admin_add_balance"
	ActionAdminAddCredits = "admin_add_credits"
	ActionAdminAddEvent   = "admin_add_event"
	ActionAdminRefConfig  = "admin_referral_config"
)

// State — состояние одного диалога.
type State struct {
	Action    string            // какой шаг выполняется
	MessageID int               // сообщение с клавиатурой, которое надо обновить
	Payload   map[string]string // накопленные данные шагов
}

// Store — потокобезопасное хранилище состояний, ключ — ID пользователя.
type Store struct {
	mu     sync.Mutex
	states map[int64]*State
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{states: make(map[int64]*State)}
}

// Set запоминает состояние диалога пользователя, затирая предыдущее.
func (s *Store) Set(userID int64, st *State) {
	if st.Payload == nil {
		st.Payload = make(map[string]string)
	}
	s.mu.Lock()
	s.states[userID] = st
	s.mu.Unlock()
}

// Get возвращает текущее состояние или nil, если диалога нет.
func (s *Store) Get(userID int64) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

// Delete завершает диалог пользователя.
func (s *Store) Delete(userID int64) {
	s.mu.Lock()
	delete(s.states, userID)
	s.mu.Unlock()
}
