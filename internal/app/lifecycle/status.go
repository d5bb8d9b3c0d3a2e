package lifecycle

// Статус заявки в конвейере согласования
type Status string

const (
	StatusDraft                Status = "draft"                 // черновик (создана продажами)
	StatusSubmitted            Status = "submitted"             // отправлена на рассмотрение
	StatusEdited               Status = "edited"                // псевдо-статус: отметка о редактировании в истории
	StatusUnderReview          Status = "under_review"          // на рассмотрении у конструкторов
	StatusClarificationNeeded  Status = "clarification_needed"  // требуются уточнения
	StatusFeasibilityConfirmed Status = "feasibility_confirmed" // конструкторы подтвердили выполнимость
	StatusDesignResult         Status = "design_result"         // сохранён результат проработки
	StatusInCosting            Status = "in_costing"            // передана в расчёт себестоимости
	StatusCostingComplete      Status = "costing_complete"      // расчёт себестоимости завершён
	StatusSalesFollowup        Status = "sales_followup"        // проработка коммерческих условий продажами
	StatusGMApprovalPending    Status = "gm_approval_pending"   // ожидает утверждения GM
	StatusGMApproved           Status = "gm_approved"           // утверждена GM
	StatusGMRejected           Status = "gm_rejected"           // отклонена GM
	StatusCancelled            Status = "cancelled"             // отменена
	StatusClosed               Status = "closed"                // закрыта
)

// Приоритет заявки
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Действие над заявкой (ключ таблицы переходов)
type Action string

const (
	ActionSubmit               Action = "submit"
	ActionSetUnderReview       Action = "set_under_review"
	ActionRequestClarification Action = "request_clarification"
	ActionAccept               Action = "accept"
	ActionSaveDesignResult     Action = "save_design_result"
	ActionStartCosting         Action = "start_costing"
	ActionSubmitCosting        Action = "submit_costing"
	ActionStartSalesFollowup   Action = "start_sales_followup"
	ActionSubmitForApproval    Action = "submit_for_approval"
	ActionApprove              Action = "approve"
	ActionReject               Action = "reject"
	ActionCancel               Action = "cancel"
	ActionClose                Action = "close"
)

// IsTerminal сообщает, является ли статус конечным
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusClosed
}

// IsLifecycle сообщает, является ли статус настоящим статусом конвейера.
// Отметка edited в историю попадает, но статусом заявки не бывает.
func (s Status) IsLifecycle() bool {
	return s != StatusEdited
}

// ValidStatus проверяет, что строка — известный статус (включая edited)
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusEdited, StatusUnderReview,
		StatusClarificationNeeded, StatusFeasibilityConfirmed, StatusDesignResult,
		StatusInCosting, StatusCostingComplete, StatusSalesFollowup,
		StatusGMApprovalPending, StatusGMApproved, StatusGMRejected,
		StatusCancelled, StatusClosed:
		return true
	}
	return false
}

// ValidPriority проверяет значение приоритета
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}
