package lifecycle

import "fmt"

// Код ошибки guard-проверки перехода
type GuardCode string

const (
	// Роль пользователя не входит в разрешённый набор для действия
	CodeForbidden GuardCode = "forbidden"
	// Действие недопустимо из текущего статуса
	CodeInvalidTransition GuardCode = "invalid_transition"
	// Не прошла валидация payload перехода
	CodeValidationFailed GuardCode = "validation_failed"
)

// GuardError — результат отказа в переходе. Возвращается значением,
// чтобы вызывающий мог показать ошибку по конкретному полю.
type GuardError struct {
	Code    GuardCode `json:"code"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (e *GuardError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func forbidden(message string) *GuardError {
	return &GuardError{Code: CodeForbidden, Message: message}
}

func invalidTransition(message string) *GuardError {
	return &GuardError{Code: CodeInvalidTransition, Message: message}
}

func validationFailed(field, message string) *GuardError {
	return &GuardError{Code: CodeValidationFailed, Field: field, Message: message}
}
