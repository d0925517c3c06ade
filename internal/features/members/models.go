// Package members ведёт реестр пользователей бота.
// models.go описывает структуры данных для работы с таблицей members.
package members

import "time"

// Member - пользователь, который хотя бы раз писал боту.
type Member struct {
	ID               int64     `db:"id"`                // Автоинкрементный ID записи в БД
	UserID           int64     `db:"user_id"`           // Telegram user ID (уникальный)
	Username         string    `db:"username"`          // @username (может быть пустым)
	FirstName        string    `db:"first_name"`        // Имя пользователя
	LastName         string    `db:"last_name"`         // Фамилия (может быть пустой)
	ChatID           int64     `db:"chat_id"`           // Личный чат для напоминаний
	RemindersEnabled bool      `db:"reminders_enabled"` // Присылать напоминания о слотах
	IsBanned         bool      `db:"is_banned"`         // Флаг бана
	JoinedAt         time.Time `db:"joined_at"`         // Первое сообщение боту
	LastSeenAt       time.Time `db:"last_seen_at"`      // Последнее сообщение
	UpdatedAt        time.Time `db:"updated_at"`
}

// Profile - данные из Telegram, которые обновляются при каждом сообщении.
type Profile struct {
	UserID    int64
	ChatID    int64
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username - возвращает его, иначе - имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		return "пользователь"
	}
	return name
}
