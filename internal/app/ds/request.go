package ds

import (
	"time"

	"backend/internal/app/lifecycle"
)

// 1. Таблица заявок (агрегат). Статус меняется только через guard-переход
// с одновременной записью в журнал — прямого пути мутации статуса нет.
type QuoteRequest struct {
	ID       string             `gorm:"primaryKey;size:36" json:"id"`
	Status   lifecycle.Status   `gorm:"type:varchar(30);not null;default:'draft'" json:"status"`
	Priority lifecycle.Priority `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`

	// Клиент и контакты
	ClientName   string `gorm:"type:varchar(150);not null" json:"clientName"`
	ContactName  string `gorm:"type:varchar(100)" json:"contactName"`
	ContactEmail string `gorm:"type:varchar(100)" json:"contactEmail"`
	ContactPhone string `gorm:"type:varchar(50)" json:"contactPhone"`
	Country      string `gorm:"type:varchar(100)" json:"country"`
	VehicleType  string `gorm:"type:varchar(150)" json:"vehicleType"`

	CreatedBy     string `gorm:"type:varchar(36);not null" json:"createdBy"`
	CreatedByName string `gorm:"type:varchar(100)" json:"createdByName"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Статус последнего настоящего перехода по журналу (отметки edited
	// пропускаются). Вычисляется при чтении, в БД не хранится.
	CurrentStage lifecycle.Status `gorm:"-" json:"currentStage,omitempty"`

	// Состав заявки
	Products []Product      `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"products"`
	History  []HistoryEntry `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"history"`

	// Поэтапные блоки данных (появляются по мере прохождения конвейера)
	Design  *DesignBlock  `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"design,omitempty"`
	Costing *CostingBlock `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"costing,omitempty"`
	Sales   *SalesBlock   `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"sales,omitempty"`

	// Проекция коммерческого предложения клиенту
	OfferLines  []ClientOfferLine `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE" json:"offerLines,omitempty"`
	OfferLocked bool              `gorm:"not null;default:false" json:"offerLocked"`
}

// 2. Журнал изменений заявки (append-only). Порядок вставки хранится в Seq:
// временные метки для сортировки не используются.
type HistoryEntry struct {
	ID        string           `gorm:"primaryKey;size:36" json:"id"`
	RequestID string           `gorm:"size:36;not null;index" json:"-"`
	Seq       int              `gorm:"not null" json:"-"`
	Status    lifecycle.Status `gorm:"type:varchar(30);not null" json:"status"`
	Timestamp time.Time        `gorm:"not null" json:"timestamp"`
	UserID    string           `gorm:"type:varchar(36);not null" json:"userId"`
	UserName  string           `gorm:"type:varchar(100)" json:"userName"`
	Comment   string           `gorm:"type:text" json:"comment,omitempty"`
}

// Блок данных конструкторского этапа
type DesignBlock struct {
	ID                uint       `gorm:"primaryKey" json:"-"`
	RequestID         string     `gorm:"size:36;not null;uniqueIndex" json:"-"`
	AcceptanceMessage string     `gorm:"type:text" json:"acceptanceMessage,omitempty"`
	ExpectedReplyDate *time.Time `json:"expectedReplyDate,omitempty"`
	Comments          string     `gorm:"type:text" json:"comments,omitempty"`
}

// Блок данных расчёта себестоимости
type CostingBlock struct {
	ID           uint     `gorm:"primaryKey" json:"-"`
	RequestID    string   `gorm:"size:36;not null;uniqueIndex" json:"-"`
	SellingPrice float64  `gorm:"type:decimal(14,2)" json:"sellingPrice"`
	Margin       *float64 `gorm:"type:decimal(8,2)" json:"margin,omitempty"`
	VATMode      string   `gorm:"type:varchar(10)" json:"vatMode"`
	VATRate      *float64 `gorm:"type:decimal(6,2)" json:"vatRate,omitempty"`
	Comments     string   `gorm:"type:text" json:"comments,omitempty"`
}

// Блок коммерческих условий (этап продаж / утверждения GM)
type SalesBlock struct {
	ID                   uint               `gorm:"primaryKey" json:"-"`
	RequestID            string             `gorm:"size:36;not null;uniqueIndex" json:"-"`
	FinalPrice           float64            `gorm:"type:decimal(14,2)" json:"finalPrice"`
	Margin               *float64           `gorm:"type:decimal(8,2)" json:"margin,omitempty"`
	ExpectedDeliveryDate *time.Time         `json:"expectedDeliveryDate,omitempty"`
	Incoterm             string             `gorm:"type:varchar(20)" json:"incoterm"`
	Comments             string             `gorm:"type:text" json:"comments,omitempty"`
	PaymentTerms         []SalesPaymentTerm `gorm:"foreignKey:SalesBlockID;constraint:OnDelete:CASCADE" json:"paymentTerms"`
}

// Одна доля платежа (до 6 на заявку); сумма процентов активного набора
// должна быть равна 100 ± 0.01 до отправки на утверждение GM
type SalesPaymentTerm struct {
	ID             uint     `gorm:"primaryKey" json:"-"`
	SalesBlockID   uint     `gorm:"not null;index" json:"-"`
	PaymentNumber  int      `gorm:"not null" json:"paymentNumber"`
	PaymentName    string   `gorm:"type:varchar(100)" json:"paymentName"`
	PaymentPercent *float64 `gorm:"type:decimal(6,2)" json:"paymentPercent"`
	Comments       string   `gorm:"type:text" json:"comments,omitempty"`
}

// Строка коммерческого предложения клиенту. Создаётся из продуктов заявки,
// до утверждения GM редактируется; после утверждения количество и цена
// фиксируются из утверждённых условий — переход односторонний.
type ClientOfferLine struct {
	ID          string  `gorm:"primaryKey;size:36" json:"id"`
	RequestID   string  `gorm:"size:36;not null;index" json:"-"`
	ProductID   string  `gorm:"size:36" json:"productId,omitempty"`
	Description string  `gorm:"type:varchar(255)" json:"description"`
	Quantity    int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice   float64 `gorm:"type:decimal(14,2)" json:"unitPrice"`
	Locked      bool    `gorm:"not null;default:false" json:"locked"`
}
