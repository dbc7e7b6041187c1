package validation

import (
	"fmt"

	"github.com/mmeshcher/invoice-system/internal/model"
)

// ClientInput содержит данные формы клиента.
type ClientInput struct {
	Name      string `json:"name" validate:"required"`
	Email     string `json:"email" validate:"omitempty,email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	VATNumber string `json:"vatNumber"`
	RegNumber string `json:"regNumber"`
}

var clientMessages = map[string]string{
	"name.required": "Client name is required",
	"email.email":   msgInvalidEmail,
}

// ValidateClient проверяет данные формы клиента.
func ValidateClient(in ClientInput) (model.ClientFields, error) {
	var errs Errors
	if err := check(in, clientMessages, &errs); err != nil {
		return model.ClientFields{}, fmt.Errorf("validate client: %w", err)
	}
	if len(errs) > 0 {
		return model.ClientFields{}, errs
	}

	return model.ClientFields{
		Name:      in.Name,
		Email:     in.Email,
		Address:   in.Address,
		Phone:     in.Phone,
		VATNumber: in.VATNumber,
		RegNumber: in.RegNumber,
	}, nil
}
