package validation

import (
	"fmt"

	"github.com/mmeshcher/invoice-system/internal/model"
)

// CompanyInput содержит данные формы реквизитов компании.
type CompanyInput struct {
	Name      string `json:"companyName" validate:"required"`
	Email     string `json:"companyEmail" validate:"omitempty,email"`
	Address   string `json:"companyAddress"`
	Phone     string `json:"companyPhone"`
	VAT       string `json:"companyVat"`
	RegNumber string `json:"companyRegNumber"`
}

// AccountInput содержит данные формы настроек учётной записи.
// Пустой пароль означает, что пароль не меняется.
type AccountInput struct {
	FullName string `json:"fullName" validate:"required"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

var settingsMessages = map[string]string{
	"companyName.required": "Company name is required",
	"companyEmail.email":   msgInvalidEmail,
	"fullName.required":    "Full name is required",
	"password.min":         "Password must be at least 6 characters",
}

// ValidateCompanyDetails проверяет реквизиты компании.
func ValidateCompanyDetails(in CompanyInput) (model.CompanyDetails, error) {
	var errs Errors
	if err := check(in, settingsMessages, &errs); err != nil {
		return model.CompanyDetails{}, fmt.Errorf("validate company details: %w", err)
	}
	if len(errs) > 0 {
		return model.CompanyDetails{}, errs
	}

	return model.CompanyDetails(in), nil
}

// ValidateAccount проверяет настройки учётной записи.
func ValidateAccount(in AccountInput) (AccountInput, error) {
	var errs Errors
	if err := check(in, settingsMessages, &errs); err != nil {
		return AccountInput{}, fmt.Errorf("validate account: %w", err)
	}
	if len(errs) > 0 {
		return AccountInput{}, errs
	}
	return in, nil
}

// CredentialsInput содержит email и пароль для входа и регистрации.
type CredentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var credentialsMessages = map[string]string{
	"email.required":    "Email is required",
	"email.email":       msgInvalidEmail,
	"password.required": "Password is required",
	"password.min":      "Password must be at least 6 characters",
}

// ValidateCredentials проверяет данные регистрации.
func ValidateCredentials(in CredentialsInput) (CredentialsInput, error) {
	var errs Errors
	if err := check(in, credentialsMessages, &errs); err != nil {
		return CredentialsInput{}, fmt.Errorf("validate credentials: %w", err)
	}
	if len(errs) > 0 {
		return CredentialsInput{}, errs
	}
	return in, nil
}
