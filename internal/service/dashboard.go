package service

import (
	"context"
	"sort"
	"time"

	"github.com/mmeshcher/invoice-system/internal/model"
)

const recentInvoices = 5

// Dashboard собирает сводку по счетам пользователя.
func (s *Service) Dashboard(ctx context.Context, session model.Session) (model.Dashboard, error) {
	invoices, err := s.repo.ListInvoices(ctx, session.UserID, model.InvoiceFilter{})
	if err != nil {
		return model.Dashboard{}, err
	}
	return summarize(invoices), nil
}

// summarize ожидает счета, упорядоченные от новых к старым.
func summarize(invoices []model.InvoiceRecord) model.Dashboard {
	d := model.Dashboard{
		TotalInvoices: len(invoices),
		Recent:        invoices[:min(recentInvoices, len(invoices))],
		Revenue:       []model.MonthlyRevenue{},
	}

	clients := make(map[string]struct{})
	months := make(map[time.Time]float64)

	for _, inv := range invoices {
		d.TotalRevenue += inv.Amount
		clients[inv.ClientName] = struct{}{}

		switch inv.Status {
		case model.InvoiceStatusPending:
			d.Pending++
		case model.InvoiceStatusPaid:
			d.Paid++
		}

		created := inv.CreatedAt.UTC()
		month := time.Date(created.Year(), created.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[month] += inv.Amount
	}
	d.ActiveClients = len(clients)

	keys := make([]time.Time, 0, len(months))
	for m := range months {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	for _, m := range keys {
		d.Revenue = append(d.Revenue, model.MonthlyRevenue{
			Month: m.Format("Jan 2006"),
			Total: months[m],
		})
	}

	return d
}
