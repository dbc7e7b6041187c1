package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/invoice-system/internal/model"
)

const clientColumns = `c.id, c.owner_id, c.name, c.email, c.address, c.phone, c.vat_number, c.reg_number, c.created_at`

func scanClient(row pgx.Row, extra ...any) (model.Client, error) {
	var c model.Client
	dest := []any{
		&c.ID, &c.OwnerID, &c.Name, &c.Email, &c.Address, &c.Phone, &c.VATNumber, &c.RegNumber, &c.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return c, err
}

// CreateClient сохраняет нового клиента пользователя.
func (r *PostgresRepository) CreateClient(ctx context.Context, ownerID string, f model.ClientFields) (model.Client, error) {
	id := uuid.NewString()

	var c model.Client
	err := r.withRetry(ctx, func() error {
		var err error
		c, err = scanClient(r.pool.QueryRow(ctx,
			`INSERT INTO clients AS c (id, owner_id, name, email, address, phone, vat_number, reg_number)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+clientColumns,
			id, ownerID, f.Name, f.Email, f.Address, f.Phone, f.VATNumber, f.RegNumber,
		))
		return err
	})
	if err != nil {
		return model.Client{}, fmt.Errorf("create client: %w", err)
	}
	return c, nil
}

// FindClientByName ищет клиента пользователя по имени без учёта регистра.
// При нескольких совпадениях возвращается самый ранний.
func (r *PostgresRepository) FindClientByName(ctx context.Context, ownerID, name string) (*model.Client, error) {
	c, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+`
		 FROM clients c
		 WHERE c.owner_id = $1 AND lower(c.name) = lower($2)
		 ORDER BY c.created_at, c.id
		 LIMIT 1`,
		ownerID, name,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &c, nil
}

// GetClient возвращает клиента пользователя по идентификатору.
func (r *PostgresRepository) GetClient(ctx context.Context, ownerID, id string) (*model.Client, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	c, err := scanClient(r.pool.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients c WHERE c.id = $1 AND c.owner_id = $2`,
		id, ownerID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

// UpdateClient заменяет редактируемые поля клиента.
func (r *PostgresRepository) UpdateClient(ctx context.Context, ownerID, id string, f model.ClientFields) (model.Client, error) {
	if !validID(id) {
		return model.Client{}, ErrNotFound
	}

	var c model.Client
	err := r.withRetry(ctx, func() error {
		var err error
		c, err = scanClient(r.pool.QueryRow(ctx,
			`UPDATE clients AS c
			 SET name = $3, email = $4, address = $5, phone = $6, vat_number = $7, reg_number = $8
			 WHERE c.id = $1 AND c.owner_id = $2
			 RETURNING `+clientColumns,
			id, ownerID, f.Name, f.Email, f.Address, f.Phone, f.VATNumber, f.RegNumber,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Client{}, ErrNotFound
		}
		return model.Client{}, fmt.Errorf("update client: %w", err)
	}
	return c, nil
}

// DeleteClient удаляет клиента. Связанные счета остаются, их client_id обнуляется.
func (r *PostgresRepository) DeleteClient(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return ErrNotFound
	}

	var tag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM clients WHERE id = $1 AND owner_id = $2`,
			id, ownerID,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AllClients возвращает всех клиентов пользователя в алфавитном порядке.
func (r *PostgresRepository) AllClients(ctx context.Context, ownerID string) ([]model.Client, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+` FROM clients c WHERE c.owner_id = $1 ORDER BY c.name, c.created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	var res []model.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// ListClientsWithCounts возвращает страницу клиентов с количеством счетов и общее число клиентов,
// подходящих под условия поиска.
func (r *PostgresRepository) ListClientsWithCounts(ctx context.Context, q model.ClientQuery) ([]model.ClientWithCount, int, error) {
	where, args := clientFilter(q)

	total, err := r.countClients(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+`, COUNT(i.id)
		 FROM clients c
		 LEFT JOIN invoices i ON i.client_id = c.id
		 WHERE `+where+`
		 GROUP BY c.id
		 ORDER BY `+clientOrder(q)+`
		 LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select clients with counts: %w", err)
	}
	defer rows.Close()

	res := make([]model.ClientWithCount, 0, q.Limit)
	for rows.Next() {
		var count int
		c, err := scanClient(rows, &count)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		res = append(res, model.ClientWithCount{Client: c, InvoiceCount: count})
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

// ListClients возвращает страницу клиентов без подсчёта счетов.
func (r *PostgresRepository) ListClients(ctx context.Context, q model.ClientQuery) ([]model.Client, int, error) {
	where, args := clientFilter(q)

	total, err := r.countClients(ctx, where, args)
	if err != nil {
		return nil, 0, err
	}

	args = append(args, q.Limit, q.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT `+clientColumns+`
		 FROM clients c
		 WHERE `+where+`
		 ORDER BY `+clientOrder(q)+`
		 LIMIT $`+fmt.Sprint(len(args)-1)+` OFFSET $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("select clients: %w", err)
	}
	defer rows.Close()

	res := make([]model.Client, 0, q.Limit)
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan client: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	return res, total, nil
}

func (r *PostgresRepository) countClients(ctx context.Context, where string, args []any) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM clients c WHERE `+where,
		args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return total, nil
}

// clientFilter ограничивает выборку клиентами владельца; поиск идёт только по имени.
func clientFilter(q model.ClientQuery) (string, []any) {
	where := "c.owner_id = $1"
	args := []any{q.OwnerID}

	if s := strings.TrimSpace(q.Search); s != "" {
		args = append(args, "%"+escapeLike(s)+"%")
		where += " AND c.name ILIKE $2"
	}

	return where, args
}

// clientOrder строит ORDER BY только из известных колонок.
func clientOrder(q model.ClientQuery) string {
	col := "c.name"
	switch q.Sort {
	case model.ClientSortEmail:
		col = "c.email"
	case model.ClientSortCreatedAt:
		col = "c.created_at"
	}

	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}

	return col + " " + dir + ", c.id " + dir
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
