// Package render строит печатные представления счёта: HTML-предпросмотр и PDF.
// Суммы в обоих представлениях берутся из totals.ForInvoice.
package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/mmeshcher/invoice-system/internal/model"
	"github.com/mmeshcher/invoice-system/internal/totals"
)

const dateLayout = "Jan 2, 2006"

// Money форматирует сумму с двумя знаками после запятой.
func Money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Number форматирует число в кратчайшем виде: 10, 7.5.
func Number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Date форматирует дату счёта; нулевая дата печатается пустой строкой.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// CurrencyCode приводит код валюты к ISO 4217. Неизвестный код печатается как есть,
// пустой заменяется валютой по умолчанию.
func CurrencyCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return model.DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code
	}
	return unit.String()
}

type row struct {
	Description string
	Quantity    string
	Price       string
	Amount      string
}

type party struct {
	Name  string
	Lines []string
}

// document содержит данные, общие для HTML и PDF.
type document struct {
	Number    string
	Date      string
	DueDate   string
	From      party
	To        party
	Rows      []row
	Currency  string
	Subtotal  string
	TaxRate   string
	TaxAmount string
	Discount  string
	Total     string
}

func newParty(name, address, email, phone, vat, reg string) party {
	p := party{Name: name}
	if address != "" {
		p.Lines = append(p.Lines, address)
	}
	if email != "" {
		p.Lines = append(p.Lines, "Email: "+email)
	}
	if phone != "" {
		p.Lines = append(p.Lines, "Phone: "+phone)
	}
	if vat != "" {
		p.Lines = append(p.Lines, "VAT: "+vat)
	}
	if reg != "" {
		p.Lines = append(p.Lines, "Reg: "+reg)
	}
	return p
}

func newDocument(inv model.Invoice) document {
	t := totals.ForInvoice(inv)

	rows := make([]row, 0, len(inv.Items))
	for _, it := range inv.Items {
		rows = append(rows, row{
			Description: it.Description,
			Quantity:    Number(it.Quantity),
			Price:       Money(it.Price),
			Amount:      Money(it.Quantity * it.Price),
		})
	}

	return document{
		Number:    inv.InvoiceNumber,
		Date:      Date(inv.Date),
		DueDate:   Date(inv.DueDate),
		From:      newParty(inv.FromName, inv.FromAddress, inv.FromEmail, inv.FromPhone, inv.FromVAT, inv.FromRegNumber),
		To:        newParty(inv.ToName, inv.ToAddress, inv.ToEmail, inv.ToPhone, inv.ToVAT, inv.ToRegNumber),
		Rows:      rows,
		Currency:  CurrencyCode(inv.Currency),
		Subtotal:  Money(t.Subtotal),
		TaxRate:   Number(inv.TaxRate),
		TaxAmount: Money(t.TaxAmount),
		Discount:  Money(inv.Discount),
		Total:     Money(t.Total),
	}
}
