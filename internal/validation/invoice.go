// Package validation содержит схемы проверки данных форм: счетов, клиентов и настроек.
package validation

import (
	"fmt"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/totals"
)

type invoiceFields struct {
	InvoiceNumber string       `json:"invoiceNumber" validate:"required"`
	FromName      string       `json:"fromName" validate:"required"`
	FromEmail     string       `json:"fromEmail" validate:"omitempty,email"`
	ToName        string       `json:"toName" validate:"required"`
	ToEmail       string       `json:"toEmail" validate:"omitempty,email"`
	Items         []itemFields `json:"items" validate:"min=1,dive"`
	TaxRate       float64      `json:"taxRate" validate:"gte=0,lte=100"`
	Discount      float64      `json:"discount" validate:"gte=0"`
	Status        string       `json:"status" validate:"omitempty,oneof=draft pending paid overdue"`
}

type itemFields struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity" validate:"gte=1"`
	Price       float64 `json:"price" validate:"gte=0"`
}

var invoiceMessages = map[string]string{
	"invoiceNumber.required": "Invoice number is required",
	"fromName.required":      "Company name is required",
	"fromEmail.email":        msgInvalidEmail,
	"toName.required":        "Client company name is required",
	"toEmail.email":          msgInvalidEmail,
	"items.min":              "At least one item is required",
	"description.required":   "Description is required",
	"quantity.gte":           "Quantity must be at least 1",
	"price.gte":              "Price must be positive",
	"taxRate.gte":            "Tax rate must be between 0 and 100",
	"taxRate.lte":            "Tax rate must be between 0 and 100",
	"discount.gte":           "Discount must be positive",
	"status.oneof":           "Invalid status",
}

// ValidateInvoice проверяет данные формы счёта. При успехе возвращает счёт с
// применёнными значениями по умолчанию, иначе ошибку типа Errors.
//
// Проверка скидки относительно суммы счёта выполняется только после того,
// как прошли проверки отдельных полей.
func ValidateInvoice(in InvoiceInput) (model.Invoice, error) {
	var errs Errors

	if !in.Date.Valid {
		errs.add("date", msgInvalidDate)
	}
	if !in.DueDate.Valid {
		errs.add("dueDate", msgInvalidDate)
	}

	fields := invoiceFields{
		InvoiceNumber: in.InvoiceNumber,
		FromName:      in.FromName,
		FromEmail:     in.FromEmail,
		ToName:        in.ToName,
		ToEmail:       in.ToEmail,
		Items:         make([]itemFields, 0, len(in.Items)),
		TaxRate:       in.TaxRate.Float(),
		Discount:      in.Discount.Float(),
		Status:        in.Status,
	}

	for i, it := range in.Items {
		if !it.Quantity.Valid {
			errs.add(itemPath(i, "quantity"), msgExpectedNumber)
		}
		if !it.Price.Valid {
			errs.add(itemPath(i, "price"), msgExpectedNumber)
		}
		fields.Items = append(fields.Items, itemFields{
			Description: it.Description,
			Quantity:    it.Quantity.Float(),
			Price:       it.Price.Float(),
		})
	}

	if in.TaxRate.Set && !in.TaxRate.Valid {
		errs.add("taxRate", msgExpectedNumber)
	}
	if in.Discount.Set && !in.Discount.Valid {
		errs.add("discount", msgExpectedNumber)
	}

	if err := check(fields, invoiceMessages, &errs); err != nil {
		return model.Invoice{}, fmt.Errorf("validate invoice: %w", err)
	}

	if len(errs) > 0 {
		return model.Invoice{}, errs
	}

	inv := in.Loose()

	t := totals.ForInvoice(inv)
	if inv.Discount > t.DiscountCeiling() {
		return model.Invoice{}, Errors{{Field: "discount", Message: MsgDiscountExceedsTotal}}
	}

	return inv, nil
}
