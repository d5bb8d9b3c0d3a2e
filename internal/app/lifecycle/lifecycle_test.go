package lifecycle

import (
	"testing"
	"time"

	"backend/internal/app/role"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func fptr(v float64) *float64 { return &v }

func validAccept() AcceptPayload {
	return AcceptPayload{
		AcceptanceMessage: "Выполнимо, берём в проработку",
		ExpectedReplyDate: testNow.Add(72 * time.Hour),
	}
}

func validCosting() CostingPayload {
	return CostingPayload{
		SellingPrice: 12500,
		Margin:       fptr(18.5),
		VATMode:      VATModeWithout,
	}
}

func validApproval() ApprovalPayload {
	return ApprovalPayload{
		FinalPrice:           14000,
		Margin:               fptr(20),
		ExpectedDeliveryDate: testNow.Add(30 * 24 * time.Hour),
		Incoterm:             "FCA",
		PaymentTerms: []PaymentTerm{
			{PaymentNumber: 1, PaymentName: "Аванс", PaymentPercent: fptr(30)},
			{PaymentNumber: 2, PaymentName: "Доплата", PaymentPercent: fptr(70)},
		},
	}
}

func TestHappyPath(t *testing.T) {
	steps := []struct {
		action  Action
		role    role.Role
		payload Payload
		want    Status
	}{
		{ActionSubmit, role.Sales, nil, StatusSubmitted},
		{ActionSetUnderReview, role.Design, nil, StatusUnderReview},
		{ActionAccept, role.Design, validAccept(), StatusFeasibilityConfirmed},
		{ActionSaveDesignResult, role.Design, DesignResultPayload{Comments: "Чертёж готов"}, StatusDesignResult},
		{ActionStartCosting, role.Costing, nil, StatusInCosting},
		{ActionSubmitCosting, role.Costing, validCosting(), StatusCostingComplete},
		{ActionStartSalesFollowup, role.Sales, nil, StatusSalesFollowup},
		{ActionSubmitForApproval, role.Sales, validApproval(), StatusGMApprovalPending},
		{ActionApprove, role.Admin, nil, StatusGMApproved},
		{ActionClose, role.Admin, nil, StatusClosed},
	}

	current := StatusDraft
	for _, step := range steps {
		next, gerr := NextStatus(current, step.action, step.role, step.payload, testNow)
		require.Nil(t, gerr, "action %s from %s", step.action, current)
		require.Equal(t, step.want, next)
		current = next
	}
	assert.True(t, current.IsTerminal())
}

func TestRejectionCycle(t *testing.T) {
	// gm_rejected -> sales_followup -> gm_approval_pending повторяемо
	next, gerr := NextStatus(StatusGMApprovalPending, ActionReject, role.Admin,
		CommentPayload{Comment: "Слишком низкая маржа"}, testNow)
	require.Nil(t, gerr)
	require.Equal(t, StatusGMRejected, next)

	next, gerr = NextStatus(next, ActionStartSalesFollowup, role.Sales, nil, testNow)
	require.Nil(t, gerr)
	require.Equal(t, StatusSalesFollowup, next)

	next, gerr = NextStatus(next, ActionSubmitForApproval, role.Sales, validApproval(), testNow)
	require.Nil(t, gerr)
	require.Equal(t, StatusGMApprovalPending, next)

	// Повторная подача возможна и напрямую из gm_rejected
	next, gerr = NextStatus(StatusGMRejected, ActionSubmitForApproval, role.Sales, validApproval(), testNow)
	require.Nil(t, gerr)
	require.Equal(t, StatusGMApprovalPending, next)
}

func TestGuardOrderRoleBeforeState(t *testing.T) {
	// Продажи пытаются утвердить — даже из неподходящего статуса
	// первым срабатывает отказ по роли
	_, gerr := NextStatus(StatusDraft, ActionApprove, role.Sales, nil, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeForbidden, gerr.Code)

	// Правильная роль, неподходящий статус — invalid_transition
	_, gerr = NextStatus(StatusDraft, ActionApprove, role.Admin, nil, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeInvalidTransition, gerr.Code)

	// Правильная роль и статус, но плохой payload — validation_failed
	_, gerr = NextStatus(StatusInCosting, ActionSubmitCosting, role.Costing,
		CostingPayload{SellingPrice: -5, Margin: fptr(10), VATMode: VATModeWithout}, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeValidationFailed, gerr.Code)
	assert.Equal(t, "sellingPrice", gerr.Field)
}

func TestClarificationRequiresComment(t *testing.T) {
	_, gerr := NextStatus(StatusSubmitted, ActionRequestClarification, role.Design,
		CommentPayload{Comment: "   "}, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeValidationFailed, gerr.Code)
	assert.Equal(t, "comment", gerr.Field)

	next, gerr := NextStatus(StatusSubmitted, ActionRequestClarification, role.Design,
		CommentPayload{Comment: "Уточните нагрузку на ось"}, testNow)
	require.Nil(t, gerr)
	assert.Equal(t, StatusClarificationNeeded, next)
}

func TestAcceptRequiresFutureDate(t *testing.T) {
	p := validAccept()
	p.ExpectedReplyDate = testNow.Add(-time.Hour)
	_, gerr := NextStatus(StatusUnderReview, ActionAccept, role.Design, p, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeValidationFailed, gerr.Code)
	assert.Equal(t, "expectedReplyDate", gerr.Field)
}

func TestDesignResultNeedsCommentsOrAttachments(t *testing.T) {
	_, gerr := NextStatus(StatusFeasibilityConfirmed, ActionSaveDesignResult, role.Design,
		DesignResultPayload{}, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeValidationFailed, gerr.Code)

	next, gerr := NextStatus(StatusFeasibilityConfirmed, ActionSaveDesignResult, role.Design,
		DesignResultPayload{AttachmentIDs: []string{"a1"}}, testNow)
	require.Nil(t, gerr)
	assert.Equal(t, StatusDesignResult, next)
}

func TestCostingVATModes(t *testing.T) {
	p := validCosting()
	p.VATMode = VATModeWith
	p.VATRate = nil
	_, gerr := NextStatus(StatusInCosting, ActionSubmitCosting, role.Costing, p, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, "vatRate", gerr.Field)

	p.VATRate = fptr(20)
	next, gerr := NextStatus(StatusInCosting, ActionSubmitCosting, role.Costing, p, testNow)
	require.Nil(t, gerr)
	assert.Equal(t, StatusCostingComplete, next)

	p.VATMode = "maybe"
	_, gerr = NextStatus(StatusInCosting, ActionSubmitCosting, role.Costing, p, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, "vatMode", gerr.Field)
}

func TestPaymentTermsValidation(t *testing.T) {
	t.Run("сумма 95 процентов отклоняется", func(t *testing.T) {
		terms := []PaymentTerm{
			{PaymentNumber: 1, PaymentName: "Аванс", PaymentPercent: fptr(45)},
			{PaymentNumber: 2, PaymentName: "Доплата", PaymentPercent: fptr(50)},
		}
		gerr := ValidatePaymentTerms(terms)
		require.NotNil(t, gerr)
		assert.Equal(t, CodeValidationFailed, gerr.Code)
		assert.Equal(t, "paymentTerms", gerr.Field)
	})

	t.Run("допуск 0.01 принимается", func(t *testing.T) {
		terms := []PaymentTerm{
			{PaymentNumber: 1, PaymentName: "Аванс", PaymentPercent: fptr(33.33)},
			{PaymentNumber: 2, PaymentName: "Вторая", PaymentPercent: fptr(33.33)},
			{PaymentNumber: 3, PaymentName: "Третья", PaymentPercent: fptr(33.34)},
		}
		assert.Nil(t, ValidatePaymentTerms(terms))
	})

	t.Run("пустое название отклоняется", func(t *testing.T) {
		terms := []PaymentTerm{
			{PaymentNumber: 1, PaymentName: " ", PaymentPercent: fptr(100)},
		}
		require.NotNil(t, ValidatePaymentTerms(terms))
	})

	t.Run("процент обязателен", func(t *testing.T) {
		terms := []PaymentTerm{
			{PaymentNumber: 1, PaymentName: "Аванс"},
		}
		require.NotNil(t, ValidatePaymentTerms(terms))
	})

	t.Run("больше шести платежей отклоняется", func(t *testing.T) {
		terms := make([]PaymentTerm, 7)
		for i := range terms {
			terms[i] = PaymentTerm{PaymentNumber: i + 1, PaymentName: "Платёж", PaymentPercent: fptr(100.0 / 7)}
		}
		require.NotNil(t, ValidatePaymentTerms(terms))
	})

	t.Run("approve с 95 процентами не проходит", func(t *testing.T) {
		p := validApproval()
		p.PaymentTerms = []PaymentTerm{
			{PaymentNumber: 1, PaymentName: "Аванс", PaymentPercent: fptr(95)},
		}
		_, gerr := NextStatus(StatusSalesFollowup, ActionSubmitForApproval, role.Sales, p, testNow)
		require.NotNil(t, gerr)
		assert.Equal(t, "paymentTerms", gerr.Field)
	})
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	nonTerminal := []Status{
		StatusDraft, StatusSubmitted, StatusUnderReview, StatusClarificationNeeded,
		StatusFeasibilityConfirmed, StatusDesignResult, StatusInCosting,
		StatusCostingComplete, StatusSalesFollowup, StatusGMApprovalPending,
		StatusGMApproved, StatusGMRejected,
	}
	for _, s := range nonTerminal {
		next, gerr := NextStatus(s, ActionCancel, role.Admin, nil, testNow)
		require.Nil(t, gerr, "cancel from %s", s)
		assert.Equal(t, StatusCancelled, next)
	}

	for _, s := range []Status{StatusCancelled, StatusClosed} {
		_, gerr := NextStatus(s, ActionCancel, role.Admin, nil, testNow)
		require.NotNil(t, gerr, "cancel from %s", s)
		assert.Equal(t, CodeInvalidTransition, gerr.Code)
	}

	// Отмена доступна только администратору
	_, gerr := NextStatus(StatusSubmitted, ActionCancel, role.Sales, nil, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeForbidden, gerr.Code)
}

// Полный перебор статус x действие x роль: каждая комбинация либо даёт
// целевой статус из таблицы, либо ошибку без смены статуса
func TestExhaustiveGrid(t *testing.T) {
	allStatuses := []Status{
		StatusDraft, StatusSubmitted, StatusUnderReview, StatusClarificationNeeded,
		StatusFeasibilityConfirmed, StatusDesignResult, StatusInCosting,
		StatusCostingComplete, StatusSalesFollowup, StatusGMApprovalPending,
		StatusGMApproved, StatusGMRejected, StatusCancelled, StatusClosed,
	}
	allActions := []Action{
		ActionSubmit, ActionSetUnderReview, ActionRequestClarification, ActionAccept,
		ActionSaveDesignResult, ActionStartCosting, ActionSubmitCosting,
		ActionStartSalesFollowup, ActionSubmitForApproval, ActionApprove,
		ActionReject, ActionCancel, ActionClose,
	}
	allRoles := []role.Role{role.Sales, role.Design, role.Costing, role.Admin}

	validPayloads := map[Action]Payload{
		ActionRequestClarification: CommentPayload{Comment: "уточнение"},
		ActionAccept:               validAccept(),
		ActionSaveDesignResult:     DesignResultPayload{Comments: "готово"},
		ActionSubmitCosting:        validCosting(),
		ActionSubmitForApproval:    validApproval(),
	}

	for _, s := range allStatuses {
		for _, a := range allActions {
			for _, r := range allRoles {
				tr, ok := LookupTransition(a)
				require.True(t, ok)

				next, gerr := NextStatus(s, a, r, validPayloads[a], testNow)
				if gerr != nil {
					assert.Equal(t, s, next,
						"отказ не должен менять статус: %s/%s/%s", s, a, r)
					continue
				}
				assert.Equal(t, tr.To, next, "переход %s/%s/%s", s, a, r)
			}
		}
	}
}

func TestAllowedActions(t *testing.T) {
	actions := AllowedActions(StatusGMApprovalPending, role.Admin)
	assert.ElementsMatch(t, []Action{ActionApprove, ActionReject, ActionCancel}, actions)

	assert.Empty(t, AllowedActions(StatusClosed, role.Admin))
	assert.Empty(t, AllowedActions(StatusGMApprovalPending, role.Costing))
}

func TestEditedIsNotLifecycle(t *testing.T) {
	assert.False(t, StatusEdited.IsLifecycle())
	assert.True(t, ValidStatus(StatusEdited))

	// edited не входит в таблицу переходов ни как источник
	_, gerr := NextStatus(StatusEdited, ActionCancel, role.Admin, nil, testNow)
	require.NotNil(t, gerr)
	assert.Equal(t, CodeInvalidTransition, gerr.Code)
}
