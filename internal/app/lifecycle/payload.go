package lifecycle

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Режимы НДС в расчёте себестоимости
const (
	VATModeWith    = "with"
	VATModeWithout = "without"
)

// Допуск при проверке суммы долей платежей (100 ± 0.01)
var paymentSumTolerance = decimal.NewFromFloat(0.01)

// Payload — типизированные данные перехода. Каждый переход, которому нужны
// данные, объявляет свой вариант; валидация выполняется на границе guard,
// глубже payload считается уже проверенным.
type Payload interface {
	transitionPayload()
}

// CommentPayload — свободный комментарий (request_clarification — обязателен,
// approve/reject/cancel/close — опционален)
type CommentPayload struct {
	Comment string
}

// AcceptPayload — подтверждение выполнимости конструкторами
type AcceptPayload struct {
	AcceptanceMessage string
	ExpectedReplyDate time.Time
}

// DesignResultPayload — результат конструкторской проработки:
// комментарии и/или вложения
type DesignResultPayload struct {
	Comments      string
	AttachmentIDs []string
}

// CostingPayload — итог расчёта себестоимости
type CostingPayload struct {
	SellingPrice float64
	Margin       *float64
	VATMode      string
	VATRate      *float64
	Comments     string
}

// PaymentTerm — одна доля платежа в коммерческих условиях
type PaymentTerm struct {
	PaymentNumber  int
	PaymentName    string
	PaymentPercent *float64
	Comments       string
}

// ApprovalPayload — коммерческие условия для утверждения GM
type ApprovalPayload struct {
	FinalPrice           float64
	Margin               *float64
	ExpectedDeliveryDate time.Time
	Incoterm             string
	PaymentTerms         []PaymentTerm
	Comments             string
}

func (CommentPayload) transitionPayload()      {}
func (AcceptPayload) transitionPayload()       {}
func (DesignResultPayload) transitionPayload() {}
func (CostingPayload) transitionPayload()      {}
func (ApprovalPayload) transitionPayload()     {}

// ValidatePaymentTerms проверяет активный набор долей: у каждой непустое
// название и заданный процент, сумма процентов равна 100 ± 0.01.
// Используется и guard-таблицей, и повторной проверкой на сервере.
func ValidatePaymentTerms(terms []PaymentTerm) *GuardError {
	if len(terms) == 0 {
		return validationFailed("paymentTerms", "не заданы условия оплаты")
	}
	if len(terms) > 6 {
		return validationFailed("paymentTerms", "допускается не более 6 платежей")
	}

	sum := decimal.Zero
	for _, t := range terms {
		if strings.TrimSpace(t.PaymentName) == "" {
			return validationFailed("paymentTerms", "у каждого платежа должно быть название")
		}
		if t.PaymentPercent == nil {
			return validationFailed("paymentTerms", "у каждого платежа должен быть указан процент")
		}
		sum = sum.Add(decimal.NewFromFloat(*t.PaymentPercent))
	}

	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(paymentSumTolerance) {
		return validationFailed("paymentTerms", "сумма процентов платежей должна быть равна 100")
	}
	return nil
}

func requireComment(p Payload, _ time.Time) *GuardError {
	cp, ok := p.(CommentPayload)
	if !ok || strings.TrimSpace(cp.Comment) == "" {
		return validationFailed("comment", "требуется непустой комментарий")
	}
	return nil
}

// Комментарий опционален, но если payload передан — это должен быть комментарий
func optionalComment(p Payload, _ time.Time) *GuardError {
	if p == nil {
		return nil
	}
	if _, ok := p.(CommentPayload); !ok {
		return validationFailed("payload", "ожидался комментарий")
	}
	return nil
}

func noPayload(_ Payload, _ time.Time) *GuardError {
	return nil
}

func validateAccept(p Payload, now time.Time) *GuardError {
	ap, ok := p.(AcceptPayload)
	if !ok {
		return validationFailed("payload", "ожидались данные подтверждения выполнимости")
	}
	if strings.TrimSpace(ap.AcceptanceMessage) == "" {
		return validationFailed("acceptanceMessage", "требуется сообщение о принятии")
	}
	if !ap.ExpectedReplyDate.After(now) {
		return validationFailed("expectedReplyDate", "ожидаемая дата ответа должна быть в будущем")
	}
	return nil
}

func validateDesignResult(p Payload, _ time.Time) *GuardError {
	dp, ok := p.(DesignResultPayload)
	if !ok {
		return validationFailed("payload", "ожидался результат проработки")
	}
	if strings.TrimSpace(dp.Comments) == "" && len(dp.AttachmentIDs) == 0 {
		return validationFailed("comments", "требуются комментарии или вложения")
	}
	return nil
}

func validateCosting(p Payload, _ time.Time) *GuardError {
	cp, ok := p.(CostingPayload)
	if !ok {
		return validationFailed("payload", "ожидались данные расчёта себестоимости")
	}
	if cp.SellingPrice <= 0 {
		return validationFailed("sellingPrice", "цена продажи должна быть больше нуля")
	}
	if cp.Margin == nil {
		return validationFailed("margin", "требуется указать маржу")
	}
	switch cp.VATMode {
	case VATModeWith:
		if cp.VATRate == nil {
			return validationFailed("vatRate", "при режиме НДС 'with' требуется ставка НДС")
		}
	case VATModeWithout:
		// ставка не требуется
	default:
		return validationFailed("vatMode", "режим НДС должен быть 'with' или 'without'")
	}
	return nil
}

func validateApproval(p Payload, _ time.Time) *GuardError {
	ap, ok := p.(ApprovalPayload)
	if !ok {
		return validationFailed("payload", "ожидались коммерческие условия")
	}
	if ap.FinalPrice <= 0 {
		return validationFailed("finalPrice", "итоговая цена должна быть больше нуля")
	}
	if ap.Margin == nil {
		return validationFailed("margin", "требуется указать маржу")
	}
	if ap.ExpectedDeliveryDate.IsZero() {
		return validationFailed("expectedDeliveryDate", "требуется ожидаемая дата поставки")
	}
	if strings.TrimSpace(ap.Incoterm) == "" {
		return validationFailed("incoterm", "требуется указать инкотерм")
	}
	return ValidatePaymentTerms(ap.PaymentTerms)
}
