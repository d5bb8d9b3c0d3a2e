package ds

import "time"

// Сигнальное значение «прочее» для классификаторов с произвольным текстом
const OtherValue = "other"

// Режимы задания шпилек/PCD: стандартный выбор или спецификация текстом.
// Режимы взаимоисключающие — при переключении данные другой ветки очищаются.
const (
	StudsModeStandard = "standard"
	StudsModeSpecial  = "special"
)

// 3. Таблица продуктов — одна позиция запрашиваемого изделия (ось/колесо).
// Продукт принадлежит только своей заявке, вне её идентичности не имеет.
type Product struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	RequestID string `gorm:"size:36;not null;index" json:"-"`

	// Классификация (каждая — с запасным свободным текстом при значении other)
	AxleType              string `gorm:"type:varchar(50)" json:"axleType"`
	AxleTypeOther         string `gorm:"type:varchar(150)" json:"axleTypeOther,omitempty"`
	ArticulationType      string `gorm:"type:varchar(50)" json:"articulationType"`
	ArticulationTypeOther string `gorm:"type:varchar(150)" json:"articulationTypeOther,omitempty"`
	Configuration         string `gorm:"type:varchar(50)" json:"configuration"`
	ConfigurationOther    string `gorm:"type:varchar(150)" json:"configurationOther,omitempty"`

	// Физические параметры
	LoadKg      float64 `gorm:"type:decimal(10,2)" json:"loadKg"`
	SpeedKmh    float64 `gorm:"type:decimal(8,2)" json:"speedKmh"`
	TyreSize    string  `gorm:"type:varchar(50)" json:"tyreSize"`
	TrackMm     float64 `gorm:"type:decimal(10,2)" json:"trackMm"`
	WheelBaseMm float64 `gorm:"type:decimal(10,2)" json:"wheelBaseMm"`

	// Шпильки/PCD: standard — выбор из фиксированного набора, special — текст
	StudsMode    string  `gorm:"type:varchar(10);default:'standard'" json:"studsMode"`
	StudsCount   int     `json:"studsCount,omitempty"`
	PCDMm        float64 `gorm:"type:decimal(8,2)" json:"pcdMm,omitempty"`
	StudsSpecial string  `gorm:"type:varchar(255)" json:"studsSpecial,omitempty"`

	// Тормоза
	BrakeType string `gorm:"type:varchar(50)" json:"brakeType"`
	BrakeSize string `gorm:"type:varchar(50)" json:"brakeSize"`

	Attachments []Attachment `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// Вложение — непрозрачная ссылка на файл в blob-хранилище.
// Содержимое файла ядро никогда не интерпретирует.
type Attachment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProductID  string    `gorm:"size:36;index" json:"-"`
	RequestID  string    `gorm:"size:36;index" json:"-"`
	Filename   string    `gorm:"type:varchar(255);not null" json:"filename"`
	ObjectName string    `gorm:"type:varchar(255)" json:"-"` // имя объекта в MinIO
	URL        string    `gorm:"type:varchar(512)" json:"url"`
	Type       string    `gorm:"type:varchar(50)" json:"type"`
	UploadedAt time.Time `gorm:"not null" json:"uploadedAt"`
	UploadedBy string    `gorm:"type:varchar(36)" json:"uploadedBy"`
}
