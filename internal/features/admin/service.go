// Package admin - service.go содержит логику аутентификации, управления сессиями
// и ручных начислений очков.
package admin

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/argon2"

	"serotonyl.ru/manifest369/internal/common"
	"serotonyl.ru/manifest369/internal/config"
	"serotonyl.ru/manifest369/internal/features/achievements"
	"serotonyl.ru/manifest369/internal/features/points"
)

// Параметры Argon2id для новых хешей.
const (
	argonMemory      uint32 = 64 * 1024 // 64 MB
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonSaltLength         = 16
	argonKeyLength   uint32 = 32
)

// AchievementChecker открывает достижения после начисления.
type AchievementChecker interface {
	CheckAndUnlock(ctx context.Context, userID int64) []achievements.Achievement
}

// Service управляет входом администраторов и ручными начислениями.
type Service struct {
	repo         Repository
	points       *points.Service
	achievements AchievementChecker // nil - не проверяем
	cfg          *config.Config
	now          func() time.Time
}

// NewService создаёт сервис админки.
func NewService(repo Repository, pts *points.Service, ach AchievementChecker, cfg *config.Config) *Service {
	return &Service{
		repo:         repo,
		points:       pts,
		achievements: ach,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Login проверяет пароль администратора и открывает сессию на 24 часа.
// 3 неудачные попытки за час блокируют вход до конца окна.
func (s *Service) Login(ctx context.Context, userID int64, password string) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}

	now := s.now()
	attempts, err := s.repo.FailedAttemptsSince(ctx, userID, now.Add(-LockoutPeriod))
	if err != nil {
		return err
	}
	if attempts >= MaxFailedAttempts {
		return common.ErrTooManyAttempts
	}

	match := verifyArgon2id(password, s.cfg.AdminPasswordHash)
	if err := s.repo.LogAttempt(ctx, userID, match, now); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Попытка входа не записана")
	}
	if !match {
		log.WithField("user_id", userID).Warn("Неверный пароль администратора")
		return common.ErrWrongPassword
	}

	session := &AdminSession{
		UserID:          userID,
		SessionToken:    generateSecureToken(),
		AuthenticatedAt: now,
		ExpiresAt:       now.Add(SessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Администратор вошёл")
	return nil
}

// Logout закрывает сессии администратора.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.DeactivateSessions(ctx, userID)
}

// Authorize проверяет права и активную сессию.
func (s *Service) Authorize(ctx context.Context, userID int64) error {
	if !s.cfg.IsAdmin(userID) {
		return common.ErrNotAdmin
	}
	now := s.now()
	if _, err := s.repo.GetActiveSession(ctx, userID, now); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrSessionExpired
		}
		return err
	}
	if err := s.repo.TouchSession(ctx, userID, now); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Активность сессии не обновлена")
	}
	return nil
}

// Grant начисляет очки участнику от имени администратора.
func (s *Service) Grant(ctx context.Context, g Grant) (*points.AwardResult, []achievements.Achievement, error) {
	if err := s.Authorize(ctx, g.AdminID); err != nil {
		return nil, nil, err
	}

	res, err := s.points.AwardPoints(ctx, g.TargetID, g.Action, g.Multiplier, GrantNote)
	if err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"admin_id":   g.AdminID,
		"target_id":  g.TargetID,
		"action":     g.Action,
		"multiplier": g.Multiplier,
		"points":     res.PointsAwarded,
	}).Info("Ручное начисление")

	var unlocked []achievements.Achievement
	if s.achievements != nil {
		unlocked = s.achievements.CheckAndUnlock(ctx, g.TargetID)
	}
	return res, unlocked, nil
}

// --- Криптографические утилиты ---

// HashPassword возвращает хеш Argon2id в формате
// $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
func HashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// verifyArgon2id проверяет пароль по хешу Argon2id.
func verifyArgon2id(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		log.Error("Некорректный формат хеша Argon2id")
		return false
	}

	var memory, iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		log.WithError(err).Error("Ошибка парсинга параметров Argon2id")
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования соли")
		return false
	}
	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		log.WithError(err).Error("Ошибка декодирования хеша")
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computedHash, expectedHash) == 1
}

// generateSecureToken генерирует случайный токен сессии.
func generateSecureToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return base64.URLEncoding.EncodeToString(b)
}
