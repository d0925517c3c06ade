// Package members - service.go содержит бизнес-логику реестра участников.
package members

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Service управляет участниками.
type Service struct {
	repo Repository
}

// NewService создаёт новый сервис участников.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureMember регистрирует пользователя при первом сообщении
// и обновляет его данные при последующих.
func (s *Service) EnsureMember(ctx context.Context, p Profile) error {
	created, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return fmt.Errorf("ошибка регистрации участника: %w", err)
	}
	if created {
		log.WithFields(log.Fields{
			"user_id":  p.UserID,
			"username": p.Username,
		}).Info("Новый участник зарегистрирован")
	}
	return nil
}

// GetByUserID возвращает участника по его Telegram user ID.
func (s *Service) GetByUserID(ctx context.Context, userID int64) (*Member, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// SetReminders включает или выключает напоминания о слотах.
func (s *Service) SetReminders(ctx context.Context, userID int64, enabled bool) error {
	if err := s.repo.SetReminders(ctx, userID, enabled); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"user_id": userID,
		"enabled": enabled,
	}).Info("Настройка напоминаний изменена")
	return nil
}

// ListActive возвращает участников, которым нужно присылать напоминания.
func (s *Service) ListActive(ctx context.Context) ([]*Member, error) {
	return s.repo.ListActive(ctx)
}
