package lifecycle

import (
	"time"

	"backend/internal/app/role"
)

// Transition — одна строка таблицы переходов: из каких статусов, какой ролью,
// в какой статус и с какой валидацией payload.
// Пустой From означает «любой неконечный статус» (используется для cancel).
type Transition struct {
	From     []Status
	Roles    []role.Role
	To       Status
	Validate func(p Payload, now time.Time) *GuardError
}

// Единая таблица переходов. Её же обязан повторно проверять сервер —
// клиентские проверки носят только рекомендательный характер.
var transitions = map[Action]Transition{
	ActionSubmit: {
		From:     []Status{StatusDraft},
		Roles:    []role.Role{role.Sales},
		To:       StatusSubmitted,
		Validate: noPayload,
	},
	ActionSetUnderReview: {
		From:     []Status{StatusSubmitted, StatusUnderReview},
		Roles:    []role.Role{role.Design},
		To:       StatusUnderReview,
		Validate: noPayload,
	},
	ActionRequestClarification: {
		From:     []Status{StatusSubmitted, StatusUnderReview},
		Roles:    []role.Role{role.Design},
		To:       StatusClarificationNeeded,
		Validate: requireComment,
	},
	ActionAccept: {
		From:     []Status{StatusSubmitted, StatusUnderReview},
		Roles:    []role.Role{role.Design},
		To:       StatusFeasibilityConfirmed,
		Validate: validateAccept,
	},
	ActionSaveDesignResult: {
		From:     []Status{StatusFeasibilityConfirmed, StatusDesignResult},
		Roles:    []role.Role{role.Design},
		To:       StatusDesignResult,
		Validate: validateDesignResult,
	},
	ActionStartCosting: {
		From:     []Status{StatusFeasibilityConfirmed, StatusDesignResult, StatusSubmitted, StatusUnderReview},
		Roles:    []role.Role{role.Costing},
		To:       StatusInCosting,
		Validate: noPayload,
	},
	ActionSubmitCosting: {
		From:     []Status{StatusInCosting},
		Roles:    []role.Role{role.Costing},
		To:       StatusCostingComplete,
		Validate: validateCosting,
	},
	ActionStartSalesFollowup: {
		From:     []Status{StatusCostingComplete, StatusGMRejected},
		Roles:    []role.Role{role.Sales},
		To:       StatusSalesFollowup,
		Validate: noPayload,
	},
	ActionSubmitForApproval: {
		From:     []Status{StatusSalesFollowup, StatusGMRejected},
		Roles:    []role.Role{role.Sales},
		To:       StatusGMApprovalPending,
		Validate: validateApproval,
	},
	ActionApprove: {
		From:     []Status{StatusGMApprovalPending},
		Roles:    []role.Role{role.Admin},
		To:       StatusGMApproved,
		Validate: optionalComment,
	},
	ActionReject: {
		From:     []Status{StatusGMApprovalPending},
		Roles:    []role.Role{role.Admin},
		To:       StatusGMRejected,
		Validate: optionalComment,
	},
	ActionCancel: {
		From:     nil, // любой неконечный
		Roles:    []role.Role{role.Admin},
		To:       StatusCancelled,
		Validate: optionalComment,
	},
	ActionClose: {
		From:     []Status{StatusGMApproved},
		Roles:    []role.Role{role.Admin},
		To:       StatusClosed,
		Validate: optionalComment,
	},
}

// NextStatus — чистая guard-функция перехода. Порядок проверок фиксирован:
// роль → текущий статус → payload. При отказе статус не меняется.
func NextStatus(current Status, action Action, r role.Role, p Payload, now time.Time) (Status, *GuardError) {
	tr, ok := transitions[action]
	if !ok {
		return current, invalidTransition("неизвестное действие: " + string(action))
	}

	// 1. Проверка роли
	if !roleAllowed(r, tr.Roles) {
		return current, forbidden("действие " + string(action) + " недоступно для роли " + r.String())
	}

	// 2. Проверка текущего статуса
	if !fromAllowed(current, tr.From) {
		return current, invalidTransition("действие " + string(action) + " недопустимо из статуса " + string(current))
	}

	// 3. Валидация payload
	if err := tr.Validate(p, now); err != nil {
		return current, err
	}

	return tr.To, nil
}

// LookupTransition возвращает строку таблицы для действия
func LookupTransition(action Action) (Transition, bool) {
	tr, ok := transitions[action]
	return tr, ok
}

// AllowedActions возвращает действия, доступные роли из данного статуса
// (для UX-подсказок; авторитетная проверка — NextStatus на сервере)
func AllowedActions(current Status, r role.Role) []Action {
	var actions []Action
	for action, tr := range transitions {
		if roleAllowed(r, tr.Roles) && fromAllowed(current, tr.From) {
			actions = append(actions, action)
		}
	}
	return actions
}

func roleAllowed(r role.Role, allowed []role.Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func fromAllowed(current Status, from []Status) bool {
	if from == nil {
		return !current.IsTerminal() && current.IsLifecycle()
	}
	for _, s := range from {
		if current == s {
			return true
		}
	}
	return false
}
