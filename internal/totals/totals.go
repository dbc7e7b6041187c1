// Package totals вычисляет итоговые суммы счёта.
package totals

import (
	"math"

	"github.com/mmeshcher/invoice-system/internal/model"
)

// Totals содержит суммы счёта без округления.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	TaxAmount float64 `json:"taxAmount"`
	Total     float64 `json:"total"`
}

// Compute вычисляет промежуточный итог, сумму налога и итог с учётом скидки.
// Нечисловые значения (NaN, бесконечность) считаются нулём.
func Compute(items []model.LineItem, taxRate, discount float64) Totals {
	var subtotal float64
	for _, item := range items {
		subtotal += finite(item.Quantity) * finite(item.Price)
	}

	taxAmount := subtotal * finite(taxRate) / 100

	return Totals{
		Subtotal:  subtotal,
		TaxAmount: taxAmount,
		Total:     subtotal + taxAmount - finite(discount),
	}
}

// ForInvoice вычисляет суммы для счёта.
func ForInvoice(inv model.Invoice) Totals {
	return Compute(inv.Items, inv.TaxRate, inv.Discount)
}

// DiscountCeiling возвращает максимально допустимую скидку: сумму с налогом.
func (t Totals) DiscountCeiling() float64 {
	return t.Subtotal + t.TaxAmount
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
