package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/repository"
	"github.com/mmeshcher/invoice-system/internal/validation"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid login credentials")

// SignUp регистрирует нового пользователя и возвращает его сессию.
func (s *Service) SignUp(ctx context.Context, email, password string) (model.Session, error) {
	email = normalizeEmail(email)
	if _, err := validation.ValidateCredentials(validation.CredentialsInput{Email: email, Password: password}); err != nil {
		return model.Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.Session{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.repo.CreateUser(ctx, email, hash)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return model.Session{}, repository.ErrUserExists
		}
		return model.Session{}, err
	}

	return model.Session{UserID: id, Email: email}, nil
}

// SignIn проверяет email и пароль пользователя и возвращает его сессию.
func (s *Service) SignIn(ctx context.Context, email, password string) (model.Session, error) {
	email = normalizeEmail(email)

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.Session{}, ErrInvalidCredentials
		}
		return model.Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return model.Session{}, ErrInvalidCredentials
	}

	return model.Session{UserID: u.ID, Email: u.Email}, nil
}

// Profile возвращает данные текущего пользователя.
func (s *Service) Profile(ctx context.Context, session model.Session) (*model.User, error) {
	return s.repo.GetUser(ctx, session.UserID)
}

// UpdateCompanyDetails проверяет и сохраняет реквизиты компании пользователя.
func (s *Service) UpdateCompanyDetails(ctx context.Context, session model.Session, in validation.CompanyInput) (model.CompanyDetails, error) {
	details, err := validation.ValidateCompanyDetails(in)
	if err != nil {
		return model.CompanyDetails{}, err
	}
	if err := s.repo.UpdateCompanyDetails(ctx, session.UserID, details); err != nil {
		return model.CompanyDetails{}, err
	}
	return details, nil
}

// UpdateAccount обновляет имя пользователя и, если задан, пароль.
func (s *Service) UpdateAccount(ctx context.Context, session model.Session, in validation.AccountInput) error {
	account, err := validation.ValidateAccount(in)
	if err != nil {
		return err
	}

	var hash []byte
	if account.Password != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	return s.repo.UpdateAccount(ctx, session.UserID, account.FullName, hash)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
