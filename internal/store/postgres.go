package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/manifest369/internal/common"
)

// PostgresStore хранит документы в таблице user_state (JSONB + версия).
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх пула соединений.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get возвращает документ по ключу.
func (p *PostgresStore) Get(ctx context.Context, key string) (Record, error) {
	query := `SELECT data, version FROM user_state WHERE key = $1`
	var rec Record
	err := p.db.QueryRow(ctx, query, key).Scan(&rec.Data, &rec.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, common.ErrNotFound
		}
		return Record{}, fmt.Errorf("ошибка чтения состояния: %w", err)
	}
	return rec, nil
}

// Put вставляет (expected=0) или обновляет документ с проверкой версии.
func (p *PostgresStore) Put(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	if expected == 0 {
		tag, err := p.db.Exec(ctx, `
			INSERT INTO user_state (key, data, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (key) DO NOTHING
		`, key, data)
		if err != nil {
			return 0, fmt.Errorf("ошибка создания состояния: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, common.ErrVersionConflict
		}
		return 1, nil
	}

	tag, err := p.db.Exec(ctx, `
		UPDATE user_state
		SET data = $2, version = version + 1, updated_at = NOW()
		WHERE key = $1 AND version = $3
	`, key, data, expected)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления состояния: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, common.ErrVersionConflict
	}
	return expected + 1, nil
}

// Delete удаляет документ.
func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM user_state WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("ошибка удаления состояния: %w", err)
	}
	return nil
}
