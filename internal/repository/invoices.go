package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/invoice-system/internal/model"
)

const invoiceColumns = `id, owner_id, client_id, client_name, amount, status, currency, created_at, data`

func scanInvoice(row pgx.Row) (model.InvoiceRecord, error) {
	var (
		rec    model.InvoiceRecord
		status string
		data   []byte
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.ClientID, &rec.ClientName, &rec.Amount, &status, &rec.Currency, &rec.CreatedAt, &data,
	)
	if err != nil {
		return model.InvoiceRecord{}, err
	}
	rec.Status = model.InvoiceStatus(status)

	if len(data) > 0 && string(data) != "null" {
		var inv model.Invoice
		if err := json.Unmarshal(data, &inv); err != nil {
			return model.InvoiceRecord{}, fmt.Errorf("decode invoice data: %w", err)
		}
		rec.Data = &inv
	}

	return rec, nil
}

func encodeInvoice(inv *model.Invoice) ([]byte, error) {
	if inv == nil {
		return nil, nil
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encode invoice data: %w", err)
	}
	return data, nil
}

// CreateInvoice сохраняет новую запись счёта и возвращает её идентификатор.
func (r *PostgresRepository) CreateInvoice(ctx context.Context, rec model.InvoiceRecord) (string, error) {
	id := uuid.NewString()
	if rec.Data != nil {
		snapshot := *rec.Data
		snapshot.ID = id
		rec.Data = &snapshot
	}

	data, err := encodeInvoice(rec.Data)
	if err != nil {
		return "", err
	}

	err = r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO invoices (id, owner_id, client_id, client_name, amount, status, currency, created_at, data)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, rec.OwnerID, rec.ClientID, rec.ClientName, rec.Amount, string(rec.Status), rec.Currency, rec.CreatedAt, data,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("create invoice: %w", err)
	}
	return id, nil
}

// UpdateInvoice заменяет сохранённую запись счёта с тем же идентификатором.
func (r *PostgresRepository) UpdateInvoice(ctx context.Context, rec model.InvoiceRecord) error {
	if !validID(rec.ID) {
		return ErrNotFound
	}

	data, err := encodeInvoice(rec.Data)
	if err != nil {
		return err
	}

	var tag pgconn.CommandTag
	err = r.withRetry(ctx, func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE invoices
			 SET client_id = $3, client_name = $4, amount = $5, status = $6, currency = $7, created_at = $8, data = $9
			 WHERE id = $1 AND owner_id = $2`,
			rec.ID, rec.OwnerID, rec.ClientID, rec.ClientName, rec.Amount, string(rec.Status), rec.Currency, rec.CreatedAt, data,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateInvoiceStatus меняет только статус счёта, в том числе внутри снимка.
func (r *PostgresRepository) UpdateInvoiceStatus(ctx context.Context, ownerID, id string, status model.InvoiceStatus) error {
	if !validID(id) {
		return ErrNotFound
	}

	var tag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE invoices
			 SET status = $3,
			     data = CASE WHEN data IS NULL THEN NULL ELSE jsonb_set(data, '{status}', to_jsonb($3::text)) END
			 WHERE id = $1 AND owner_id = $2`,
			id, ownerID, string(status),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInvoice удаляет счёт пользователя.
func (r *PostgresRepository) DeleteInvoice(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	var tag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM invoices WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetInvoice возвращает запись счёта пользователя.
func (r *PostgresRepository) GetInvoice(ctx context.Context, ownerID, id string) (*model.InvoiceRecord, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	rec, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &rec, nil
}

// ListInvoices возвращает счета пользователя, начиная с самых новых.
func (r *PostgresRepository) ListInvoices(ctx context.Context, ownerID string, f model.InvoiceFilter) ([]model.InvoiceRecord, error) {
	where := "owner_id = $1"
	args := []any{ownerID}

	if f.Status != "" {
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if s := strings.TrimSpace(f.ClientName); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where += fmt.Sprintf(" AND client_name ILIKE $%d", len(args))
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE `+where+` ORDER BY created_at DESC, id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("select invoices: %w", err)
	}
	defer rows.Close()

	var res []model.InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		res = append(res, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
