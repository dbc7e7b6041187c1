package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/repository"
)

// ensureClient находит клиента по имени получателя счёта (без учёта регистра)
// или создаёт нового из реквизитов получателя. Контактные данные найденного
// клиента не меняются.
//
// Ошибка создания клиента не прерывает сохранение счёта: она логируется, а
// счёт остаётся без ссылки на клиента, либо со ссылкой из формы, если такой
// клиент принадлежит пользователю. Второе значение сообщает, установлена ли ссылка.
func (s *Service) ensureClient(ctx context.Context, session model.Session, inv model.Invoice) (string, bool) {
	if inv.ToName == "" {
		return s.ownedClientID(ctx, session, inv.ClientID)
	}

	existing, err := s.repo.FindClientByName(ctx, session.UserID, inv.ToName)
	if err == nil {
		return existing.ID, true
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("failed to look up client by name",
			zap.String("userID", session.UserID), zap.Error(err))
	}

	created, err := s.repo.CreateClient(ctx, session.UserID, inv.ClientFields())
	if err != nil {
		s.logger.Warn("failed to create client for invoice",
			zap.String("userID", session.UserID),
			zap.String("clientName", inv.ToName),
			zap.Error(err))
		return s.ownedClientID(ctx, session, inv.ClientID)
	}

	return created.ID, true
}

func (s *Service) ownedClientID(ctx context.Context, session model.Session, id string) (string, bool) {
	if id == "" {
		return "", false
	}
	if _, err := s.repo.GetClient(ctx, session.UserID, id); err != nil {
		return "", false
	}
	return id, true
}
