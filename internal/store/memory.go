package store

import (
	"context"
	"sync"

	"serotonyl.ru/manifest369/internal/common"
)

// MemoryStore хранит документы в памяти процесса.
// Используется в тестах и для локального запуска без БД (STORE_BACKEND=memory).
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore создаёт пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok {
		return Record{}, common.ErrNotFound
	}
	// Копия, чтобы вызывающий не изменил хранимый срез
	data := make([]byte, len(rec.Data))
	copy(data, rec.Data)
	return Record{Data: data, Version: rec.Version}, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records[key].Version != expected {
		return 0, common.ErrVersionConflict
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	next := expected + 1
	m.records[key] = Record{Data: stored, Version: next}
	return next, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}
