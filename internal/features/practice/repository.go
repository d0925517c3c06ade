// Package practice - repository.go выполняет операции с таблицами wishes и practice_sessions.
package practice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/manifest369/internal/common"
)

// Repository - хранилище желаний и сессий. Реализация по умолчанию - PostgreSQL.
type Repository interface {
	CreateWish(ctx context.Context, w *Wish) error
	GetWish(ctx context.Context, userID, wishID int64) (*Wish, error)
	ListWishes(ctx context.Context, userID int64) ([]*Wish, error)
	MarkAchieved(ctx context.Context, userID, wishID int64, at time.Time) error
	// RecordSession сохраняет сессию или возвращает common.ErrSlotAlreadyCompleted.
	RecordSession(ctx context.Context, s *Session) error
	// SlotsDone возвращает слоты, выполненные в день day (хотя бы по одному желанию).
	SlotsDone(ctx context.Context, userID int64, day time.Time) ([]Slot, error)
	// GoalDays возвращает дни начиная с since, в которые выполнены все три слота.
	GoalDays(ctx context.Context, userID int64, since time.Time) ([]time.Time, error)
	Counts(ctx context.Context, userID int64) (Counts, error)
}

// PgRepository работает с PostgreSQL.
type PgRepository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий практики.
func NewRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

// CreateWish добавляет желание и заполняет ID и CreatedAt.
func (r *PgRepository) CreateWish(ctx context.Context, w *Wish) error {
	query := `
		INSERT INTO wishes (user_id, title, affirmation)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRow(ctx, query, w.UserID, w.Title, w.Affirmation).Scan(&w.ID, &w.CreatedAt); err != nil {
		return fmt.Errorf("ошибка создания желания: %w", err)
	}
	return nil
}

// GetWish возвращает желание пользователя. Чужое желание - common.ErrWishNotFound.
func (r *PgRepository) GetWish(ctx context.Context, userID, wishID int64) (*Wish, error) {
	query := `
		SELECT id, user_id, title, affirmation, achieved, created_at, achieved_at
		FROM wishes
		WHERE id = $1 AND user_id = $2
	`
	var w Wish
	err := r.db.QueryRow(ctx, query, wishID, userID).Scan(
		&w.ID, &w.UserID, &w.Title, &w.Affirmation, &w.Achieved, &w.CreatedAt, &w.AchievedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrWishNotFound
		}
		return nil, fmt.Errorf("ошибка чтения желания (id=%d): %w", wishID, err)
	}
	return &w, nil
}

// ListWishes возвращает желания пользователя: сначала активные, потом сбывшиеся.
func (r *PgRepository) ListWishes(ctx context.Context, userID int64) ([]*Wish, error) {
	query := `
		SELECT id, user_id, title, affirmation, achieved, created_at, achieved_at
		FROM wishes
		WHERE user_id = $1
		ORDER BY achieved, id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса желаний: %w", err)
	}
	defer rows.Close()

	var out []*Wish
	for rows.Next() {
		var w Wish
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Title, &w.Affirmation, &w.Achieved, &w.CreatedAt, &w.AchievedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования желания: %w", err)
		}
		out = append(out, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения желаний: %w", err)
	}
	return out, nil
}

// MarkAchieved отмечает желание сбывшимся.
func (r *PgRepository) MarkAchieved(ctx context.Context, userID, wishID int64, at time.Time) error {
	query := `
		UPDATE wishes SET achieved = TRUE, achieved_at = $3
		WHERE id = $1 AND user_id = $2 AND achieved = FALSE
	`
	tag, err := r.db.Exec(ctx, query, wishID, userID, at)
	if err != nil {
		return fmt.Errorf("ошибка обновления желания: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrWishAlreadyAchieved
	}
	return nil
}

// RecordSession сохраняет сессию. Повтор (желание, слот, день) не записывается.
func (r *PgRepository) RecordSession(ctx context.Context, s *Session) error {
	query := `
		INSERT INTO practice_sessions (user_id, wish_id, slot, day, completed_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (wish_id, slot, day) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, s.UserID, s.WishID, string(s.Slot), s.Day, s.CompletedCount).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrSlotAlreadyCompleted
		}
		return fmt.Errorf("ошибка записи практики: %w", err)
	}
	return nil
}

// SlotsDone возвращает слоты, выполненные за день.
func (r *PgRepository) SlotsDone(ctx context.Context, userID int64, day time.Time) ([]Slot, error) {
	query := `SELECT DISTINCT slot FROM practice_sessions WHERE user_id = $1 AND day = $2`
	rows, err := r.db.Query(ctx, query, userID, day)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса слотов: %w", err)
	}
	defer rows.Close()

	done := make(map[Slot]bool)
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("ошибка сканирования слота: %w", err)
		}
		done[Slot(slot)] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения слотов: %w", err)
	}
	return orderSlots(done), nil
}

// GoalDays возвращает дни (новые первыми), в которые выполнены все слоты.
func (r *PgRepository) GoalDays(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	query := `
		SELECT day FROM practice_sessions
		WHERE user_id = $1 AND day >= $2
		GROUP BY day
		HAVING COUNT(DISTINCT slot) = $3
		ORDER BY day DESC
	`
	rows, err := r.db.Query(ctx, query, userID, since, len(Slots))
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса дней цели: %w", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ошибка сканирования дня: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения дней: %w", err)
	}
	return out, nil
}

// Counts возвращает счётчики сессий и желаний пользователя.
func (r *PgRepository) Counts(ctx context.Context, userID int64) (Counts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM practice_sessions WHERE user_id = $1),
			(SELECT COUNT(*) FROM wishes WHERE user_id = $1),
			(SELECT COUNT(*) FROM wishes WHERE user_id = $1 AND achieved)
	`
	var c Counts
	if err := r.db.QueryRow(ctx, query, userID).Scan(&c.Sessions, &c.WishesCreated, &c.AchievedWishes); err != nil {
		return Counts{}, fmt.Errorf("ошибка подсчёта статистики: %w", err)
	}
	return c, nil
}

func orderSlots(done map[Slot]bool) []Slot {
	out := make([]Slot, 0, len(done))
	for _, s := range Slots {
		if done[s] {
			out = append(out, s)
		}
	}
	return out
}
