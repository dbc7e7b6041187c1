// Package model содержит доменные сущности сервиса счетов.
package model

import (
	"fmt"
	"time"
)

// User представляет зарегистрированного пользователя.
type User struct {
	ID           string
	Email        string
	PasswordHash []byte
	FullName     string
	Company      CompanyDetails
	CreatedAt    time.Time
}

// Session описывает аутентифицированного пользователя, от имени которого выполняется операция.
type Session struct {
	UserID string
	Email  string
}

// CompanyDetails содержит реквизиты компании пользователя.
type CompanyDetails struct {
	Name      string `json:"companyName"`
	Email     string `json:"companyEmail"`
	Address   string `json:"companyAddress"`
	Phone     string `json:"companyPhone"`
	VAT       string `json:"companyVat"`
	RegNumber string `json:"companyRegNumber"`
}

// InvoiceStatus описывает статус счёта.
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "draft"
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Valid сообщает, является ли статус одним из допустимых значений.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// DefaultCurrency используется, если валюта счёта не указана.
const DefaultCurrency = "USD"

// LineItem описывает одну позицию счёта.
type LineItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
}

// Invoice описывает черновик счёта в том виде, в котором его редактирует пользователь.
// Этот же объект целиком сохраняется в хранилище как снимок.
type Invoice struct {
	ID            string    `json:"id,omitempty"`
	InvoiceNumber string    `json:"invoiceNumber"`
	Date          time.Time `json:"date"`
	DueDate       time.Time `json:"dueDate"`

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

	Items    []LineItem    `json:"items"`
	TaxRate  float64       `json:"taxRate"`
	Discount float64       `json:"discount"`
	Currency string        `json:"currency"`
	Status   InvoiceStatus `json:"status"`
}

// ClientFields возвращает контактные данные клиента, указанные в счёте.
func (inv Invoice) ClientFields() ClientFields {
	return ClientFields{
		Name:      inv.ToName,
		Email:     inv.ToEmail,
		Address:   inv.ToAddress,
		Phone:     inv.ToPhone,
		VATNumber: inv.ToVAT,
		RegNumber: inv.ToRegNumber,
	}
}

// DefaultInvoice возвращает значения нового счёта по умолчанию.
// seq определяет числовую часть номера счёта.
func DefaultInvoice(now time.Time, seq int) Invoice {
	return Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%d", seq),
		Date:          now,
		DueDate:       now.Add(7 * 24 * time.Hour),
		Items: []LineItem{
			{Description: "Service", Quantity: 1, Price: 100},
		},
		Currency: DefaultCurrency,
		Status:   InvoiceStatusDraft,
	}
}

// ClientFields содержит редактируемые поля клиента.
type ClientFields struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	VATNumber string `json:"vat_number"`
	RegNumber string `json:"reg_number"`
}

// Client описывает сохранённого клиента пользователя.
type Client struct {
	ClientFields
	ID        string    `json:"id"`
	OwnerID   string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ClientWithCount дополняет клиента количеством связанных счетов.
type ClientWithCount struct {
	Client
	InvoiceCount int `json:"invoice_count"`
}

// ClientSort задаёт поле сортировки списка клиентов.
type ClientSort string

const (
	ClientSortName      ClientSort = "name"
	ClientSortEmail     ClientSort = "email"
	ClientSortCreatedAt ClientSort = "created_at"
)

// ClientQuery описывает параметры постраничной выборки клиентов.
type ClientQuery struct {
	OwnerID   string
	Search    string
	Sort      ClientSort
	Ascending bool
	Page      int
	Limit     int
}

// Offset возвращает смещение первой записи страницы.
func (q ClientQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

// PageMetadata описывает параметры страницы в ответе.
type PageMetadata struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// ClientPage содержит страницу клиентов и её метаданные.
type ClientPage struct {
	Data     []ClientWithCount `json:"data"`
	Metadata PageMetadata      `json:"metadata"`
}

// InvoiceRecord описывает сохранённую запись счёта.
type InvoiceRecord struct {
	ID         string
	OwnerID    string
	ClientID   *string
	ClientName string
	Amount     float64
	Status     InvoiceStatus
	Currency   string
	CreatedAt  time.Time
	// Data содержит полный снимок счёта; у старых записей может отсутствовать.
	Data *Invoice
}

// InvoiceNumber возвращает номер счёта из снимка или идентификатор записи.
func (r InvoiceRecord) InvoiceNumber() string {
	if r.Data != nil && r.Data.InvoiceNumber != "" {
		return r.Data.InvoiceNumber
	}
	return r.ID
}

// InvoiceFilter ограничивает выборку счетов пользователя.
type InvoiceFilter struct {
	Status     InvoiceStatus
	ClientName string
}

// MonthlyRevenue содержит сумму счетов за месяц.
type MonthlyRevenue struct {
	Month string  `json:"name"`
	Total float64 `json:"total"`
}

// Dashboard содержит сводку по счетам пользователя.
type Dashboard struct {
	TotalRevenue  float64          `json:"totalRevenue"`
	TotalInvoices int              `json:"totalInvoices"`
	Pending       int              `json:"pendingInvoices"`
	Paid          int              `json:"paidInvoices"`
	ActiveClients int              `json:"activeClients"`
	Recent        []InvoiceRecord  `json:"-"`
	Revenue       []MonthlyRevenue `json:"revenue"`
}
