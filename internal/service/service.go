// Package service реализует бизнес-логику сервиса счетов.
package service

import (
	"context"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/draft"
	"github.com/mmeshcher/invoice-system/internal/model"
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, email string, passwordHash []byte) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	UpdateCompanyDetails(ctx context.Context, userID string, details model.CompanyDetails) error
	UpdateAccount(ctx context.Context, userID, fullName string, passwordHash []byte) error

	CreateClient(ctx context.Context, ownerID string, f model.ClientFields) (model.Client, error)
	FindClientByName(ctx context.Context, ownerID, name string) (*model.Client, error)
	GetClient(ctx context.Context, ownerID, id string) (*model.Client, error)
	UpdateClient(ctx context.Context, ownerID, id string, f model.ClientFields) (model.Client, error)
	DeleteClient(ctx context.Context, ownerID, id string) error
	AllClients(ctx context.Context, ownerID string) ([]model.Client, error)
	ListClientsWithCounts(ctx context.Context, q model.ClientQuery) ([]model.ClientWithCount, int, error)
	ListClients(ctx context.Context, q model.ClientQuery) ([]model.Client, int, error)

	CreateInvoice(ctx context.Context, rec model.InvoiceRecord) (string, error)
	UpdateInvoice(ctx context.Context, rec model.InvoiceRecord) error
	UpdateInvoiceStatus(ctx context.Context, ownerID, id string, status model.InvoiceStatus) error
	DeleteInvoice(ctx context.Context, ownerID, id string) error
	GetInvoice(ctx context.Context, ownerID, id string) (*model.InvoiceRecord, error)
	ListInvoices(ctx context.Context, ownerID string, f model.InvoiceFilter) ([]model.InvoiceRecord, error)
}

// Service содержит бизнес-логику сервиса счетов.
type Service struct {
	repo   Repository
	drafts draft.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService создаёт сервис с указанным репозиторием и хранилищем черновиков.
func NewService(repo Repository, drafts draft.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		drafts: drafts,
		logger: logger,
		now:    time.Now,
	}
}

// Close закрывает репозиторий и хранилище черновиков.
func (s *Service) Close() error {
	var result *multierror.Error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if c, ok := s.drafts.(io.Closer); ok {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result.ErrorOrNil()
}
