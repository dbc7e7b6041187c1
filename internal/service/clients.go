package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

// ErrForbidden возвращается при запросе данных другого пользователя.
var ErrForbidden = errors.New("forbidden")

const (
	// DefaultPage и DefaultLimit используются, если параметры страницы не заданы или некорректны.
	DefaultPage  = 1
	DefaultLimit = 10
	// MaxLimit ограничивает размер страницы.
	MaxLimit = 100
	// MaxPage не даёт смещению страницы переполнить int.
	MaxPage = math.MaxInt/MaxLimit + 1
)

// CreateClient проверяет и сохраняет нового клиента.
func (s *Service) CreateClient(ctx context.Context, session model.Session, in validation.ClientInput) (model.Client, error) {
	fields, err := validation.ValidateClient(in)
	if err != nil {
		return model.Client{}, err
	}
	return s.repo.CreateClient(ctx, session.UserID, fields)
}

// UpdateClient проверяет и обновляет клиента пользователя.
func (s *Service) UpdateClient(ctx context.Context, session model.Session, id string, in validation.ClientInput) (model.Client, error) {
	fields, err := validation.ValidateClient(in)
	if err != nil {
		return model.Client{}, err
	}
	return s.repo.UpdateClient(ctx, session.UserID, id, fields)
}

// DeleteClient удаляет клиента. Счета клиента сохраняются.
func (s *Service) DeleteClient(ctx context.Context, session model.Session, id string) error {
	return s.repo.DeleteClient(ctx, session.UserID, id)
}

// GetClient возвращает клиента пользователя.
func (s *Service) GetClient(ctx context.Context, session model.Session, id string) (*model.Client, error) {
	return s.repo.GetClient(ctx, session.UserID, id)
}

// AllClients возвращает всех клиентов пользователя по алфавиту.
func (s *Service) AllClients(ctx context.Context, session model.Session) ([]model.Client, error) {
	clients, err := s.repo.AllClients(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients, nil
}

// ListClients возвращает страницу клиентов с количеством счетов у каждого.
// Если подсчёт счетов не удался, страница возвращается с нулевыми счётчиками.
func (s *Service) ListClients(ctx context.Context, session model.Session, q model.ClientQuery) (model.ClientPage, error) {
	if q.OwnerID == "" {
		q.OwnerID = session.UserID
	}
	if q.OwnerID != session.UserID {
		return model.ClientPage{}, ErrForbidden
	}
	q = normalizeClientQuery(q)

	rows, total, err := s.repo.ListClientsWithCounts(ctx, q)
	if err != nil {
		s.logger.Warn("failed to count client invoices, falling back to plain listing",
			zap.String("userID", session.UserID), zap.Error(err))

		plain, plainTotal, err := s.repo.ListClients(ctx, q)
		if err != nil {
			return model.ClientPage{}, fmt.Errorf("list clients: %w", err)
		}

		rows = make([]model.ClientWithCount, 0, len(plain))
		for _, c := range plain {
			rows = append(rows, model.ClientWithCount{Client: c})
		}
		total = plainTotal
	}

	if rows == nil {
		rows = []model.ClientWithCount{}
	}

	return model.ClientPage{
		Data: rows,
		Metadata: model.PageMetadata{
			Total:      total,
			Page:       q.Page,
			Limit:      q.Limit,
			TotalPages: (total + q.Limit - 1) / q.Limit,
		},
	}, nil
}

func normalizeClientQuery(q model.ClientQuery) model.ClientQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page > MaxPage {
		q.Page = MaxPage
	}
	switch q.Sort {
	case model.ClientSortName, model.ClientSortEmail, model.ClientSortCreatedAt:
	default:
		q.Sort = model.ClientSortName
		q.Ascending = true
	}
	return q
}
