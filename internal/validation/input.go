package validation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/invoice-system/internal/model"
)

// Number описывает числовое поле формы. Принимает JSON-число или строку с числом;
// пустая строка считается нулём. null не меняет текущее значение, поэтому
// отсутствие поля и null при разборе поверх значений по умолчанию равнозначны.
type Number struct {
	Value float64
	Set   bool
	Valid bool
}

// NumberOf возвращает заданное корректное число.
func NumberOf(v float64) Number {
	return Number{Value: v, Set: true, Valid: true}
}

// UnmarshalJSON реализует json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = NumberOf(0)
			return nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = Number{Set: true}
		return nil
	}

	*n = NumberOf(v)
	return nil
}

// MarshalJSON реализует json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// Float возвращает значение числа или ноль, если число не задано или некорректно.
func (n Number) Float() float64 {
	if n.Valid {
		return n.Value
	}
	return 0
}

// Date описывает поле даты формы: строка в формате RFC 3339 / ISO или число миллисекунд.
type Date struct {
	Time  time.Time
	Set   bool
	Valid bool
}

// DateOf возвращает заданную корректную дату.
func DateOf(t time.Time) Date {
	return Date{Time: t, Set: true, Valid: true}
}

// UnmarshalJSON реализует json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}

	s := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}

	t, err := model.ParseDate(s)
	if err != nil {
		*d = Date{Set: true}
		return nil
	}

	*d = DateOf(t)
	return nil
}

// MarshalJSON реализует json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time)
}

// LineItemInput содержит позицию счёта в том виде, в котором она приходит из формы.
type LineItemInput struct {
	Description string `json:"description"`
	Quantity    Number `json:"quantity"`
	Price       Number `json:"price"`
}

// InvoiceInput содержит непроверенные данные формы счёта.
type InvoiceInput struct {
	ID            string `json:"id,omitempty"`
	InvoiceNumber string `json:"invoiceNumber"`
	Date          Date   `json:"date"`
	DueDate       Date   `json:"dueDate"`

	FromName      string `json:"fromName"`
	FromEmail     string `json:"fromEmail"`
	FromAddress   string `json:"fromAddress"`
	FromPhone     string `json:"fromPhone"`
	FromVAT       string `json:"fromVat"`
	FromRegNumber string `json:"fromRegNumber"`

	ClientID    string `json:"clientId,omitempty"`
	ToName      string `json:"toName"`
	ToEmail     string `json:"toEmail"`
	ToAddress   string `json:"toAddress"`
	ToPhone     string `json:"toPhone"`
	ToVAT       string `json:"toVat"`
	ToRegNumber string `json:"toRegNumber"`

	Items    []LineItemInput `json:"items"`
	TaxRate  Number          `json:"taxRate"`
	Discount Number          `json:"discount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

// InputFromInvoice преобразует счёт обратно в данные формы.
func InputFromInvoice(inv model.Invoice) InvoiceInput {
	items := make([]LineItemInput, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, LineItemInput{
			Description: it.Description,
			Quantity:    NumberOf(it.Quantity),
			Price:       NumberOf(it.Price),
		})
	}

	return InvoiceInput{
		ID:            inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		Date:          DateOf(inv.Date),
		DueDate:       DateOf(inv.DueDate),
		FromName:      inv.FromName,
		FromEmail:     inv.FromEmail,
		FromAddress:   inv.FromAddress,
		FromPhone:     inv.FromPhone,
		FromVAT:       inv.FromVAT,
		FromRegNumber: inv.FromRegNumber,
		ClientID:      inv.ClientID,
		ToName:        inv.ToName,
		ToEmail:       inv.ToEmail,
		ToAddress:     inv.ToAddress,
		ToPhone:       inv.ToPhone,
		ToVAT:         inv.ToVAT,
		ToRegNumber:   inv.ToRegNumber,
		Items:         items,
		TaxRate:       NumberOf(inv.TaxRate),
		Discount:      NumberOf(inv.Discount),
		Currency:      inv.Currency,
		Status:        string(inv.Status),
	}
}

// Loose преобразует данные формы в счёт без проверки: некорректные числа
// становятся нулём, некорректные даты становятся нулевым временем. Используется для
// живого пересчёта и предпросмотра незавершённого черновика.
func (in InvoiceInput) Loose() model.Invoice {
	items := make([]model.LineItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, model.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity.Float(),
			Price:       it.Price.Float(),
		})
	}

	currency := in.Currency
	if currency == "" {
		currency = model.DefaultCurrency
	}

	status := model.InvoiceStatus(in.Status)
	if !status.Valid() {
		status = model.InvoiceStatusDraft
	}

	return model.Invoice{
		ID:            in.ID,
		InvoiceNumber: in.InvoiceNumber,
		Date:          in.Date.Time,
		DueDate:       in.DueDate.Time,
		FromName:      in.FromName,
		FromEmail:     in.FromEmail,
		FromAddress:   in.FromAddress,
		FromPhone:     in.FromPhone,
		FromVAT:       in.FromVAT,
		FromRegNumber: in.FromRegNumber,
		ClientID:      in.ClientID,
		ToName:        in.ToName,
		ToEmail:       in.ToEmail,
		ToAddress:     in.ToAddress,
		ToPhone:       in.ToPhone,
		ToVAT:         in.ToVAT,
		ToRegNumber:   in.ToRegNumber,
		Items:         items,
		TaxRate:       in.TaxRate.Float(),
		Discount:      in.Discount.Float(),
		Currency:      currency,
		Status:        status,
	}
}
