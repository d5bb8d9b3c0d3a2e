package dto

import (
	"time"

	"backend/internal/app/history"
	"backend/internal/app/lifecycle"
)

// ============ Общие структуры ============

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	// Для guard-ошибок: код и поле, чтобы клиент показал ошибку у поля
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ============ Заявки: Summary-проекция для списков ============

// RequestSummary — лёгкая проекция заявки для списков и периодического
// опроса. Содержит ровно те поля, которые merge-алгоритм накатывает
// на закэшированную полную запись.
type RequestSummary struct {
	ID            string             `json:"id"`
	Status        lifecycle.Status   `json:"status"`
	Priority      lifecycle.Priority `json:"priority"`
	ClientName    string             `json:"clientName"`
	VehicleType   string             `json:"vehicleType"`
	Country       string             `json:"country"`
	CreatedBy     string             `json:"createdBy"`
	CreatedByName string             `json:"createdByName"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

type SummaryListResponse struct {
	Requests []RequestSummary `json:"requests"`
	Total    int              `json:"total"`
}

// HistoryResponse — журнал заявки. Entries упорядочены по порядку вставки;
// currentStage — статус последнего настоящего перехода (без отметок edited);
// lastDecision — самая свежая запись об исходе утверждения GM, если была.
type HistoryResponse struct {
	RequestID    string           `json:"requestId"`
	CurrentStage lifecycle.Status `json:"currentStage,omitempty"`
	Entries      history.Ledger   `json:"entries"`
	LastDecision *history.Entry   `json:"lastDecision,omitempty"`
}

// ============ Создание и обновление заявки ============

type ProductInput struct {
	AxleType              string  `json:"axleType"`
	AxleTypeOther         string  `json:"axleTypeOther"`
	ArticulationType      string  `json:"articulationType"`
	ArticulationTypeOther string  `json:"articulationTypeOther"`
	Configuration         string  `json:"configuration"`
	ConfigurationOther    string  `json:"configurationOther"`
	LoadKg                float64 `json:"loadKg" binding:"omitempty,gte=0"`
	SpeedKmh              float64 `json:"speedKmh" binding:"omitempty,gte=0"`
	TyreSize              string  `json:"tyreSize"`
	TrackMm               float64 `json:"trackMm" binding:"omitempty,gte=0"`
	WheelBaseMm           float64 `json:"wheelBaseMm" binding:"omitempty,gte=0"`
	StudsMode             string  `json:"studsMode" binding:"omitempty,oneof=standard special"`
	StudsCount            int     `json:"studsCount" binding:"omitempty,gte=0"`
	PCDMm                 float64 `json:"pcdMm" binding:"omitempty,gte=0"`
	StudsSpecial          string  `json:"studsSpecial"`
	BrakeType             string  `json:"brakeType"`
	BrakeSize             string  `json:"brakeSize"`
}

type CreateRequestRequest struct {
	ClientName   string         `json:"clientName" binding:"required"`
	ContactName  string         `json:"contactName"`
	ContactEmail string         `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone string         `json:"contactPhone"`
	Country      string         `json:"country"`
	VehicleType  string         `json:"vehicleType"`
	Priority     string         `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Products     []ProductInput `json:"products" binding:"required,min=1"`
}

// UpdateRequestRequest — обновление полей без смены статуса.
// Если передан editedComment, в журнал добавляется отметка edited.
type UpdateRequestRequest struct {
	ClientName    *string        `json:"clientName"`
	ContactName   *string        `json:"contactName"`
	ContactEmail  *string        `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone  *string        `json:"contactPhone"`
	Country       *string        `json:"country"`
	VehicleType   *string        `json:"vehicleType"`
	Priority      *string        `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	Products      []ProductInput `json:"products"`
	EditedComment string         `json:"editedComment"`
}

// ============ Смена статуса (guard-переход) ============

type PaymentTermInput struct {
	PaymentNumber  int      `json:"paymentNumber"`
	PaymentName    string   `json:"paymentName"`
	PaymentPercent *float64 `json:"paymentPercent"`
	Comments       string   `json:"comments"`
}

type AcceptInput struct {
	AcceptanceMessage string    `json:"acceptanceMessage"`
	ExpectedReplyDate time.Time `json:"expectedReplyDate"`
}

type DesignResultInput struct {
	Comments      string   `json:"comments"`
	AttachmentIDs []string `json:"attachmentIds"`
}

type CostingInput struct {
	SellingPrice float64  `json:"sellingPrice"`
	Margin       *float64 `json:"margin"`
	VATMode      string   `json:"vatMode"`
	VATRate      *float64 `json:"vatRate"`
	Comments     string   `json:"comments"`
}

type ApprovalInput struct {
	FinalPrice           float64            `json:"finalPrice"`
	Margin               *float64           `json:"margin"`
	ExpectedDeliveryDate time.Time          `json:"expectedDeliveryDate"`
	Incoterm             string             `json:"incoterm"`
	PaymentTerms         []PaymentTermInput `json:"paymentTerms"`
	Comments             string             `json:"comments"`
}

// StatusChangeRequest — команда перехода. Целевой статус вычисляет сервер
// по таблице переходов; клиент передаёт действие и данные этого действия.
type StatusChangeRequest struct {
	Action       lifecycle.Action   `json:"action" binding:"required"`
	Comment      string             `json:"comment"`
	Accept       *AcceptInput       `json:"accept"`
	DesignResult *DesignResultInput `json:"designResult"`
	Costing      *CostingInput      `json:"costing"`
	Approval     *ApprovalInput     `json:"approval"`
}

// ============ Коммерческое предложение ============

type OfferLineInput struct {
	ProductID   string  `json:"productId"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

type UpdateOfferRequest struct {
	Lines []OfferLineInput `json:"lines" binding:"required"`
}

// ============ Отчётность ============

type MetricsResponse struct {
	Total      int                      `json:"total"`
	ByStatus   map[lifecycle.Status]int `json:"byStatus"`
	ByPriority map[string]int           `json:"byPriority"`
	// Суммарная утверждённая стоимость по заявкам в статусе gm_approved/closed
	ApprovedValue float64 `json:"approvedValue"`
}

// ============ Пользователи ============

type UserResponse struct {
	ID       uint   `json:"id"`
	Login    string `json:"login"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RegisterRequest struct {
	Login    string `json:"login" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role" binding:"omitempty,oneof=sales design costing admin"`
}

type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}
