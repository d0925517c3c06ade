// Package admin реализует вход администраторов по паролю и ручные начисления.
// models.go описывает структуры сессий и попыток входа.
package admin

import "time"

const (
	// MaxFailedAttempts - неудачных попыток до блокировки
	MaxFailedAttempts = 3
	// LockoutPeriod - окно подсчёта неудачных попыток
	LockoutPeriod = time.Hour
	// SessionTTL - время жизни сессии администратора
	SessionTTL = 24 * time.Hour
	// GrantNote - подпись ручного начисления в истории
	GrantNote = "Начислено администратором"
)

// AdminSession - активная сессия администратора.
type AdminSession struct {
	ID              int64     `db:"id"`
	UserID          int64     `db:"user_id"`
	SessionToken    string    `db:"session_token"`
	AuthenticatedAt time.Time `db:"authenticated_at"`
	ExpiresAt       time.Time `db:"expires_at"`
	LastActivity    time.Time `db:"last_activity"`
	IsActive        bool      `db:"is_active"`
}

// LoginAttempt - попытка входа (для защиты от brute-force).
type LoginAttempt struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	AttemptTime time.Time `db:"attempt_time"`
	Success     bool      `db:"success"`
}

// Grant - ручное начисление очков участнику.
type Grant struct {
	AdminID    int64
	TargetID   int64
	Action     string
	Multiplier float64
}
