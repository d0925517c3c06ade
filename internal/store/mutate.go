package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/manifest369/internal/common"
)

// Load читает документ ключа в значение типа T.
// Отсутствующая или повреждённая запись даёт нулевое значение.
// Ошибка хранилища оборачивается в common.ErrStorageUnavailable,
// значение при этом тоже нулевое - вызывающий может продолжить с ним.
func Load[T any](ctx context.Context, s Store, key string) (T, int64, error) {
	var v T
	rec, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return v, 0, nil
		}
		return v, 0, fmt.Errorf("%w: чтение %s: %v", common.ErrStorageUnavailable, key, err)
	}
	if err := json.Unmarshal(rec.Data, &v); err != nil {
		// Повреждённое состояние считаем отсутствующим, версию сохраняем,
		// чтобы следующая запись перезаписала мусор.
		log.WithError(err).WithField("key", key).Warn("Повреждённое состояние, сбрасываем на значения по умолчанию")
		var zero T
		return zero, rec.Version, nil
	}
	return v, rec.Version, nil
}

// Mutate выполняет атомарное чтение-изменение-запись документа.
//
// fn получает указатель на текущее значение (нулевое, если записи нет)
// и меняет его на месте. Ошибка fn прерывает операцию без записи.
// При конфликте версий операция повторяется до maxRetries раз.
//
// Политика отказов хранилища: если чтение или запись не удались,
// Mutate всё равно возвращает вычисленное значение вместе с ошибкой,
// обёрнутой в common.ErrStorageUnavailable. Изменение при этом потеряно.
func Mutate[T any](ctx context.Context, s Store, key string, maxRetries int, fn func(v *T) error) (T, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var last T
	for attempt := 0; attempt < maxRetries; attempt++ {
		v, version, err := Load[T](ctx, s, key)
		if err != nil {
			// Хранилище недоступно - считаем на состоянии по умолчанию.
			var zero T
			if fnErr := fn(&zero); fnErr != nil {
				return zero, fnErr
			}
			return zero, err
		}

		if err := fn(&v); err != nil {
			return v, err
		}
		last = v

		data, err := json.Marshal(v)
		if err != nil {
			return v, fmt.Errorf("ошибка сериализации %s: %w", key, err)
		}

		_, err = s.Put(ctx, key, data, version)
		if err == nil {
			return v, nil
		}
		if errors.Is(err, common.ErrVersionConflict) {
			log.WithFields(log.Fields{
				"key":     key,
				"attempt": attempt + 1,
			}).Debug("Конфликт версий, повторяем")
			continue
		}
		return v, fmt.Errorf("%w: запись %s: %v", common.ErrStorageUnavailable, key, err)
	}

	return last, fmt.Errorf("%w: %s: исчерпаны попытки (%d)", common.ErrVersionConflict, key, maxRetries)
}
