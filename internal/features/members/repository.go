// Package members - repository.go отвечает за операции с таблицей members в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package members

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/manifest369/internal/common"
)

// Repository - хранилище участников.
type Repository interface {
	Upsert(ctx context.Context, p Profile) (created bool, err error)
	GetByUserID(ctx context.Context, userID int64) (*Member, error)
	SetReminders(ctx context.Context, userID int64, enabled bool) error
	ListActive(ctx context.Context) ([]*Member, error)
}

// PgRepository работает с PostgreSQL.
type PgRepository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий участников.
func NewRepository(db *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: db}
}

const memberColumns = `id, user_id, username, first_name, last_name, chat_id,
	reminders_enabled, is_banned, joined_at, last_seen_at, updated_at`

// Upsert добавляет участника или обновляет имя, чат и время последнего сообщения.
// created == true, если запись появилась впервые.
func (r *PgRepository) Upsert(ctx context.Context, p Profile) (bool, error) {
	query := `
		INSERT INTO members (user_id, username, first_name, last_name, chat_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    chat_id = EXCLUDED.chat_id,
		    last_seen_at = NOW(),
		    updated_at = NOW()
		RETURNING (xmax = 0)
	`
	var created bool
	err := r.db.QueryRow(ctx, query, p.UserID, p.Username, p.FirstName, p.LastName, p.ChatID).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("ошибка создания/обновления участника: %w", err)
	}
	return created, nil
}

// GetByUserID возвращает участника или common.ErrNotFound.
func (r *PgRepository) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE user_id = $1`
	m, err := scanMember(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("участник %d: %w", userID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка чтения участника (user_id=%d): %w", userID, err)
	}
	return m, nil
}

// SetReminders включает или выключает напоминания.
func (r *PgRepository) SetReminders(ctx context.Context, userID int64, enabled bool) error {
	query := `UPDATE members SET reminders_enabled = $2, updated_at = NOW() WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID, enabled)
	if err != nil {
		return fmt.Errorf("ошибка обновления напоминаний: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("участник %d: %w", userID, common.ErrNotFound)
	}
	return nil
}

// ListActive возвращает участников с включёнными напоминаниями.
func (r *PgRepository) ListActive(ctx context.Context) ([]*Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE reminders_enabled = TRUE AND is_banned = FALSE
		ORDER BY user_id
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса участников: %w", err)
	}
	defer rows.Close()

	var out []*Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func scanMember(row pgx.Row) (*Member, error) {
	var m Member
	err := row.Scan(
		&m.ID, &m.UserID, &m.Username, &m.FirstName, &m.LastName, &m.ChatID,
		&m.RemindersEnabled, &m.IsBanned, &m.JoinedAt, &m.LastSeenAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
