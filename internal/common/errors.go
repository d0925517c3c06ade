// Package common - errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки начисления очков
var (
	// ErrInvalidActionKind - неизвестный тип действия (ошибка вызывающего кода)
	ErrInvalidActionKind = errors.New("неизвестный тип действия")
	// ErrInvalidMultiplier - множитель должен быть конечным и положительным
	ErrInvalidMultiplier = errors.New("множитель должен быть положительным")
	// ErrAlreadyAwardedToday - награда за это действие уже получена сегодня
	ErrAlreadyAwardedToday = errors.New("награда за это уже получена сегодня")
)

// Ошибки хранилища
var (
	// ErrStorageUnavailable - хранилище недоступно, изменение не сохранено
	ErrStorageUnavailable = errors.New("хранилище недоступно")
	// ErrNotFound - ключ отсутствует в хранилище
	ErrNotFound = errors.New("запись не найдена")
	// ErrVersionConflict - запись изменилась между чтением и записью
	ErrVersionConflict = errors.New("конфликт версий записи")
)

// Ошибки практики и желаний
var (
	// ErrWishNotFound - желание не найдено (или принадлежит другому пользователю)
	ErrWishNotFound = errors.New("желание не найдено")
	// ErrEmptyWish - пустой текст желания
	ErrEmptyWish = errors.New("текст желания не может быть пустым")
	// ErrTextTooLong - слишком длинный текст желания или истории
	ErrTextTooLong = errors.New("слишком длинный текст")
	// ErrWishAlreadyAchieved - желание уже отмечено как сбывшееся
	ErrWishAlreadyAchieved = errors.New("желание уже сбылось")
	// ErrNotEnoughRepetitions - аффирмация написана меньше нужного числа раз
	ErrNotEnoughRepetitions = errors.New("недостаточно повторений аффирмации")
	// ErrSlotAlreadyCompleted - этот слот по этому желанию уже выполнен сегодня
	ErrSlotAlreadyCompleted = errors.New("практика в этом слоте уже выполнена сегодня")
	// ErrOutsidePracticeHours - ночью (до утреннего слота) практика не засчитывается
	ErrOutsidePracticeHours = errors.New("сейчас нет активного слота практики")
)

// Ошибки админки
var (
	// ErrNotAdmin - пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword - неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts - слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired - сессия истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
