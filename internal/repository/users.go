package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mmeshcher/invoice-system/internal/model"
)

const userColumns = `id, email, password_hash, full_name,
	company_name, company_email, company_address, company_phone, company_vat, company_reg_number,
	created_at`

// CreateUser создаёт нового пользователя и возвращает его идентификатор.
func (r *PostgresRepository) CreateUser(ctx context.Context, email string, passwordHash []byte) (string, error) {
	id := uuid.NewString()

	err := r.withRetry(ctx, func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
			id, email, passwordHash,
		)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", ErrUserExists, email)
		}
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail возвращает пользователя по email.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	)
	return scanUser(row)
}

// GetUser возвращает пользователя по идентификатору.
func (r *PostgresRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FullName,
		&u.Company.Name, &u.Company.Email, &u.Company.Address, &u.Company.Phone, &u.Company.VAT, &u.Company.RegNumber,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// UpdateCompanyDetails сохраняет реквизиты компании пользователя.
func (r *PostgresRepository) UpdateCompanyDetails(ctx context.Context, userID string, details model.CompanyDetails) error {
	var tag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET company_name = $2, company_email = $3, company_address = $4,
			        company_phone = $5, company_vat = $6, company_reg_number = $7
			 WHERE id = $1`,
			userID, details.Name, details.Email, details.Address, details.Phone, details.VAT, details.RegNumber,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update company details: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateAccount обновляет имя пользователя и, если passwordHash не пуст, пароль.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, userID, fullName string, passwordHash []byte) error {
	var tag pgconn.CommandTag
	err := r.withRetry(ctx, func() error {
		var err error
		if len(passwordHash) == 0 {
			tag, err = r.pool.Exec(ctx,
				`UPDATE users SET full_name = $2 WHERE id = $1`,
				userID, fullName,
			)
			return err
		}
		tag, err = r.pool.Exec(ctx,
			`UPDATE users SET full_name = $2, password_hash = $3 WHERE id = $1`,
			userID, fullName, passwordHash,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
