package service

import (
	"context"
	"errors"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/mmeshcher/invoice-system/internal/draft"
	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

// ErrDraftsDisabled возвращается, если хранилище черновиков не настроено.
var ErrDraftsDisabled = errors.New("draft store is not configured")

// NewDraft возвращает значения нового счёта, объединённые с сохранённым черновиком области scope.
// Ошибка чтения черновика логируется, форма открывается со значениями по умолчанию.
func (s *Service) NewDraft(ctx context.Context, scope string) (validation.InvoiceInput, bool) {
	defaults := validation.InputFromInvoice(model.DefaultInvoice(s.now(), rand.IntN(10000)))
	if s.drafts == nil || scope == "" {
		return defaults, false
	}

	in, restored, err := draft.Acquire(s.drafts, scope).Restore(ctx, defaults, false)
	if err != nil {
		s.logger.Warn("failed to restore draft", zap.String("scope", scope), zap.Error(err))
	}
	return in, restored
}

// MirrorDraft сохраняет текущее состояние формы нового счёта.
func (s *Service) MirrorDraft(ctx context.Context, scope string, in validation.InvoiceInput) error {
	if s.drafts == nil {
		return ErrDraftsDisabled
	}
	return draft.Acquire(s.drafts, scope).Mirror(ctx, in)
}

// DiscardDraft очищает черновик области scope.
func (s *Service) DiscardDraft(ctx context.Context, scope string) error {
	if s.drafts == nil {
		return ErrDraftsDisabled
	}
	return draft.Acquire(s.drafts, scope).Release(ctx)
}
