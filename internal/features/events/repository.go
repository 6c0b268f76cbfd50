// Package events — repository.go выполняет операции с таблицами
// events и event_claims. Попытка получения бонуса — одна транзакция:
// строка события блокируется, лимиты пересчитываются по журналу
// и запись добавляется под той же блокировкой, поэтому конкурентные
// попытки по одной паре (пользователь, событие) сериализуются.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shop-bot/internal/common"
)

// Repository предоставляет методы для работы с событиями и журналом получений.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий событий.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const eventColumns = `id, code, name, type, reward_amount, reward_type, min_amount,
	max_claims, max_per_user, start_date, end_date, is_active, created_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var ev Event
	err := row.Scan(&ev.ID, &ev.Code, &ev.Name, &ev.Type, &ev.RewardAmount, &ev.RewardType,
		&ev.MinAmount, &ev.MaxClaims, &ev.MaxPerUser, &ev.StartDate, &ev.EndDate,
		&ev.IsActive, &ev.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Create добавляет событие и возвращает его ID.
// Код приводится к верхнему регистру: промокоды вводятся как попало.
func (r *Repository) Create(ctx context.Context, ev *Event) (int64, error) {
	var code *string
	if ev.Code != nil {
		upper := strings.ToUpper(*ev.Code)
		code = &upper
	}
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO events (code, name, type, reward_amount, reward_type, min_amount,
			max_claims, max_per_user, start_date, end_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, code, ev.Name, ev.Type, ev.RewardAmount, ev.RewardType, ev.MinAmount,
		ev.MaxClaims, ev.MaxPerUser, ev.StartDate, ev.EndDate, ev.IsActive).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания события: %w", err)
	}
	return id, nil
}

// GetByID возвращает событие по ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*Event, error) {
	row := r.db.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения события: %w", err)
	}
	return ev, nil
}

// GetActiveByCode возвращает активное событие по промокоду.
func (r *Repository) GetActiveByCode(ctx context.Context, code string) (*Event, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE code = UPPER($1) AND is_active`, code)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска по коду: %w", err)
	}
	return ev, nil
}

// ListByType возвращает события типа, новые первыми.
func (r *Repository) ListByType(ctx context.Context, eventType string, activeOnly bool) ([]*Event, error) {
	where := `WHERE type = $1`
	if activeOnly {
		where += ` AND is_active`
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events `+where+` ORDER BY created_at DESC`, eventType)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListAll возвращает все события.
func (r *Repository) ListAll(ctx context.Context, activeOnly bool) ([]*Event, error) {
	where := ""
	if activeOnly {
		where = "WHERE is_active"
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+eventColumns+` FROM events `+where+` ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения событий: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows pgx.Rows) ([]*Event, error) {
	var list []*Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования события: %w", err)
		}
		list = append(list, ev)
	}
	return list, rows.Err()
}

// UpdateEvent применяет частичное обновление: nil-поля не трогаются.
func (r *Repository) UpdateEvent(ctx context.Context, id int64, upd Update) error {
	sets := make([]string, 0, 8)
	args := []any{id}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.RewardAmount != nil {
		add("reward_amount", *upd.RewardAmount)
	}
	if upd.RewardType != nil {
		add("reward_type", *upd.RewardType)
	}
	if upd.MinAmount != nil {
		add("min_amount", *upd.MinAmount)
	}
	if upd.MaxClaims != nil {
		add("max_claims", *upd.MaxClaims)
	}
	if upd.MaxPerUser != nil {
		add("max_per_user", *upd.MaxPerUser)
	}
	if upd.StartDate != nil {
		add("start_date", *upd.StartDate)
	}
	if upd.EndDate != nil {
		add("end_date", *upd.EndDate)
	}
	if upd.IsActive != nil {
		add("is_active", *upd.IsActive)
	}
	if len(sets) == 0 {
		return nil
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE events SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления события: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrEventNotFound
	}
	return nil
}

// Delete удаляет событие вместе с журналом его получений:
// записи о получениях не переживают своё событие.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM event_claims WHERE event_id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления журнала: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления события: %w", err)
	}
	return tx.Commit(ctx)
}

// TryClaim атомарно проверяет право и добавляет запись о получении.
// Возвращает ID записи и фактическую награду.
//
// Внутри одной транзакции: строка события блокируется FOR UPDATE
// (критическая секция на событие), лимиты пересчитываются по журналу
// уже под блокировкой, поэтому параллельная попытка увидит свежие
// счётчики. Начисление кредитов выполняет сервис ПОСЛЕ успешной
// вставки; при сбое начисления запись компенсируется DeleteClaim.
func (r *Repository) TryClaim(ctx context.Context, eventID, userID int64, triggeringAmount float64, referenceID *string) (int64, float64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, eventID)
	ev, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, common.ErrEventNotFound
	}
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка чтения события: %w", err)
	}

	var totalClaims, userClaims int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE user_id = $2)
		FROM event_claims WHERE event_id = $1
	`, eventID, userID).Scan(&totalClaims, &userClaims)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка подсчёта получений: %w", err)
	}

	// Повторная проверка под блокировкой: внешней предварительной
	// проверке доверять нельзя, между ней и вставкой есть гонка.
	if err := CanClaim(ev, time.Now(), triggeringAmount, totalClaims, userClaims); err != nil {
		return 0, 0, err
	}

	reward := Reward(ev, triggeringAmount)

	var claimID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO event_claims (event_id, user_id, amount, reference_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, eventID, userID, reward, referenceID).Scan(&claimID)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка записи получения: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("ошибка фиксации: %w", err)
	}
	return claimID, reward, nil
}

// DeleteClaim удаляет запись о получении (компенсация при сбое начисления).
func (r *Repository) DeleteClaim(ctx context.Context, claimID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM event_claims WHERE id = $1`, claimID)
	if err != nil {
		return fmt.Errorf("ошибка удаления получения: %w", err)
	}
	return nil
}

// Stats возвращает сводку по событию агрегацией журнала.
func (r *Repository) Stats(ctx context.Context, eventID int64) (*Stats, error) {
	var st Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0), COUNT(DISTINCT user_id)
		FROM event_claims WHERE event_id = $1
	`, eventID).Scan(&st.Claims, &st.TotalAmount, &st.UniqueUsers)
	if err != nil {
		return nil, fmt.Errorf("ошибка сводки события: %w", err)
	}
	return &st, nil
}
