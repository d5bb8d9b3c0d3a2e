package ds

import (
	"fmt"
	"strings"

	"backend/internal/app/lifecycle"

	"github.com/shopspring/decimal"
)

// Инварианты агрегата, не зависящие от машины состояний.
// Нарушение взаимоисключающих комбинаций даёт validation_failed ещё до
// попытки перехода; сверх описанных ограничений значения не подгоняются.

const (
	MaxQuantity     = 10000
	MaxPrice        = 1_000_000
	MaxPaymentTerms = 6
)

// ClampQuantity приводит количество к целому в [0, 10000]
func ClampQuantity(q int) int {
	if q < 0 {
		return 0
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// ClampPrice округляет цену до 2 знаков и ограничивает [0, 1 000 000]
func ClampPrice(p float64) float64 {
	d := decimal.NewFromFloat(p).Round(2)
	if d.IsNegative() {
		return 0
	}
	max := decimal.NewFromInt(MaxPrice)
	if d.GreaterThan(max) {
		return MaxPrice
	}
	f, _ := d.Float64()
	return f
}

// NormalizeStuds очищает данные неактивной ветки шпилек/PCD —
// при переключении режима устаревшие значения другой ветки не остаются
func (p *Product) NormalizeStuds() {
	switch p.StudsMode {
	case StudsModeSpecial:
		p.StudsCount = 0
		p.PCDMm = 0
	default:
		p.StudsMode = StudsModeStandard
		p.StudsSpecial = ""
	}
}

// Validate проверяет инварианты продукта
func (p *Product) Validate() *lifecycle.GuardError {
	if err := validateOther("axleType", p.AxleType, p.AxleTypeOther); err != nil {
		return err
	}
	if err := validateOther("articulationType", p.ArticulationType, p.ArticulationTypeOther); err != nil {
		return err
	}
	if err := validateOther("configuration", p.Configuration, p.ConfigurationOther); err != nil {
		return err
	}

	switch p.StudsMode {
	case StudsModeStandard:
		if strings.TrimSpace(p.StudsSpecial) != "" {
			return guardValidation("studsSpecial", "спецификация шпилек заполняется только в режиме special")
		}
	case StudsModeSpecial:
		if strings.TrimSpace(p.StudsSpecial) == "" {
			return guardValidation("studsSpecial", "в режиме special требуется текстовая спецификация шпилек")
		}
		if p.StudsCount != 0 || p.PCDMm != 0 {
			return guardValidation("studsMode", "стандартные параметры шпилек несовместимы с режимом special")
		}
	default:
		return guardValidation("studsMode", "режим шпилек должен быть standard или special")
	}
	return nil
}

// Поле «прочее» обязательно и непусто ровно тогда, когда селектор равен other
func validateOther(field, value, other string) *lifecycle.GuardError {
	if value == OtherValue {
		if strings.TrimSpace(other) == "" {
			return guardValidation(field+"Other", "при выборе «прочее» требуется текстовое значение")
		}
		return nil
	}
	if strings.TrimSpace(other) != "" {
		return guardValidation(field+"Other", "текстовое значение допустимо только при выборе «прочее»")
	}
	return nil
}

// Validate проверяет инварианты заявки целиком
func (r *QuoteRequest) Validate() *lifecycle.GuardError {
	if strings.TrimSpace(r.ClientName) == "" {
		return guardValidation("clientName", "требуется название клиента")
	}
	if !lifecycle.ValidPriority(r.Priority) {
		return guardValidation("priority", "неизвестный приоритет")
	}
	if len(r.Products) == 0 {
		return guardValidation("products", "заявка должна содержать хотя бы один продукт")
	}
	for i := range r.Products {
		if err := r.Products[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ReflowPaymentTerms перестраивает массив долей под новое количество (1–6):
// существующие записи сохраняются по позиции, новые заполняются по умолчанию
func ReflowPaymentTerms(existing []SalesPaymentTerm, count int) []SalesPaymentTerm {
	if count < 1 {
		count = 1
	}
	if count > MaxPaymentTerms {
		count = MaxPaymentTerms
	}

	terms := make([]SalesPaymentTerm, count)
	for i := 0; i < count; i++ {
		if i < len(existing) {
			terms[i] = existing[i]
		} else {
			terms[i] = SalesPaymentTerm{
				PaymentName: fmt.Sprintf("Платёж %d", i+1),
			}
		}
		terms[i].PaymentNumber = i + 1
	}
	return terms
}

func guardValidation(field, message string) *lifecycle.GuardError {
	return &lifecycle.GuardError{
		Code:    lifecycle.CodeValidationFailed,
		Field:   field,
		Message: message,
	}
}
