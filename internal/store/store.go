// Package store - хранилище состояния пользователей «ключ → документ».
// Один ключ = один документ (JSON) с версией. Запись проходит только
// если версия не изменилась с момента чтения (оптимистичная блокировка),
// поэтому чтение-изменение-запись атомарно для каждого ключа.
package store

import (
	"context"
	"fmt"
)

// Record - документ и его версия. Version 0 означает «записи нет».
type Record struct {
	Data    []byte
	Version int64
}

// Store - интерфейс хранилища. Реализации: Postgres, Redis, Memory.
type Store interface {
	// Get возвращает запись или common.ErrNotFound.
	Get(ctx context.Context, key string) (Record, error)
	// Put записывает data, если текущая версия равна expected
	// (0 - запись должна отсутствовать). Возвращает новую версию
	// или common.ErrVersionConflict.
	Put(ctx context.Context, key string, data []byte, expected int64) (int64, error)
	// Delete удаляет запись (отсутствие записи не ошибка).
	Delete(ctx context.Context, key string) error
}

// Ключи документов пользователя.
func ProgressionKey(userID int64) string  { return fmt.Sprintf("progression:%d", userID) }
func StreakKey(userID int64) string       { return fmt.Sprintf("streak:%d", userID) }
func AchievementsKey(userID int64) string { return fmt.Sprintf("achievements:%d", userID) }
