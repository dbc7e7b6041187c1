package validation

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError описывает ошибку проверки одного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors содержит ошибки проверки, привязанные к полям.
type Errors []FieldError

// Error реализует интерфейс error.
func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return strings.Join(parts, "; ")
}

// Message возвращает первое сообщение для указанного поля.
func (e Errors) Message(field string) (string, bool) {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message, true
		}
	}
	return "", false
}

func (e *Errors) add(field, message string) {
	if _, exists := e.Message(field); exists {
		return
	}
	*e = append(*e, FieldError{Field: field, Message: message})
}

const (
	msgInvalidValue   = "Invalid value"
	msgInvalidEmail   = "Invalid email"
	msgInvalidDate    = "Invalid date"
	msgExpectedNumber = "Expected number"

	// MsgDiscountExceedsTotal сообщает о скидке, превышающей сумму счёта с налогом.
	MsgDiscountExceedsTotal = "Discount cannot exceed the total amount"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check проверяет структуру по тегам validate и добавляет ошибки в errs.
// messages сопоставляет "поле.тег" с текстом сообщения.
func check(s any, messages map[string]string, errs *Errors) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	for _, fe := range verrs {
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = msgInvalidValue
		}
		errs.add(fieldPath(fe.Namespace()), msg)
	}

	return nil
}

// fieldPath преобразует "invoiceFields.items[0].quantity" в "items.0.quantity".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func itemPath(i int, field string) string {
	return "items." + strconv.Itoa(i) + "." + field
}
