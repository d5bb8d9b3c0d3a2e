package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/history"
	"backend/internal/app/lifecycle"
	"backend/internal/app/role"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Методы для работы с заявками

var ErrNotFound = errors.New("заявка не найдена")

// GetSummaries возвращает лёгкую проекцию всех заявок для списков и опроса.
// Пользователь с ролью sales видит только свои заявки, остальные роли — все.
func (r *Repository) GetSummaries(ctx context.Context, p role.Principal) ([]ds.QuoteRequest, error) {
	q := r.db.WithContext(ctx).
		Select("id", "status", "priority", "client_name", "vehicle_type", "country",
			"created_by", "created_by_name", "created_at", "updated_at").
		Order("updated_at DESC")

	if p.Role == role.Sales {
		q = q.Where("created_by = ?", p.ID)
	}

	var requests []ds.QuoteRequest
	if err := q.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// GetFullRequest возвращает полную запись заявки со всеми связями.
// Журнал сортируется по порядку вставки (seq), не по временным меткам.
func (r *Repository) GetFullRequest(ctx context.Context, id string) (*ds.QuoteRequest, error) {
	var req ds.QuoteRequest
	err := r.db.WithContext(ctx).
		Preload("Products").
		Preload("Products.Attachments").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Preload("Design").
		Preload("Costing").
		Preload("Sales").
		Preload("Sales.PaymentTerms", func(db *gorm.DB) *gorm.DB { return db.Order("payment_number ASC") }).
		Preload("OfferLines").
		First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Инвариант: статус заявки равен статусу последнего настоящего
	// перехода в журнале. Расхождение означает повреждение данных.
	ledger := ledgerFromRows(req.History)
	if stage, ok := ledger.CurrentStage(); ok {
		req.CurrentStage = stage
		if stage != req.Status {
			logrus.Warnf("request %s: status %s diverges from ledger stage %s",
				req.ID, req.Status, stage)
		}
	}
	return &req, nil
}

// GetRequestLedger возвращает журнал заявки как доменный Ledger,
// упорядоченный по порядку вставки
func (r *Repository) GetRequestLedger(ctx context.Context, id string) (history.Ledger, error) {
	var rows []ds.HistoryEntry
	err := r.db.WithContext(ctx).
		Where("request_id = ?", id).
		Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		// Пустой журнал бывает только у несуществующей заявки:
		// первая запись рождается вместе с заявкой
		var count int64
		if err := r.db.WithContext(ctx).Model(&ds.QuoteRequest{}).
			Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, ErrNotFound
		}
	}
	return ledgerFromRows(rows), nil
}

// ledgerFromRows собирает доменный журнал из строк БД
// (строки уже упорядочены по seq)
func ledgerFromRows(rows []ds.HistoryEntry) history.Ledger {
	ledger := make(history.Ledger, 0, len(rows))
	for _, row := range rows {
		ledger = ledger.Append(history.Entry{
			ID:        row.ID,
			Status:    row.Status,
			Timestamp: row.Timestamp,
			UserID:    row.UserID,
			UserName:  row.UserName,
			Comment:   row.Comment,
		})
	}
	return ledger
}

// SearchRequests ищет заявки по клиенту/технике/стране. Запрос отменяем
// через контекст — устаревший поиск обрывается на стороне клиента.
func (r *Repository) SearchRequests(ctx context.Context, query string, limit int) ([]ds.QuoteRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	pattern := "%" + query + "%"

	var requests []ds.QuoteRequest
	err := r.db.WithContext(ctx).
		Select("id", "status", "priority", "client_name", "vehicle_type", "country",
			"created_by", "created_by_name", "created_at", "updated_at").
		Where("client_name ILIKE ? OR vehicle_type ILIKE ? OR country ILIKE ?", pattern, pattern, pattern).
		Order("updated_at DESC").
		Limit(limit).
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// CreateRequest создаёт заявку в статусе draft и первой записью журнала.
// Статус и журнал рождаются вместе — инвариант соблюдён с самого начала.
func (r *Repository) CreateRequest(ctx context.Context, req *ds.QuoteRequest, p role.Principal) (*ds.QuoteRequest, *lifecycle.GuardError, error) {
	now := r.now()

	req.ID = uuid.New().String()
	req.Status = lifecycle.StatusDraft
	if req.Priority == "" {
		req.Priority = lifecycle.PriorityNormal
	}
	req.CreatedBy = p.ID
	req.CreatedByName = p.Name
	req.CreatedAt = now
	req.UpdatedAt = now

	for i := range req.Products {
		req.Products[i].ID = uuid.New().String()
		req.Products[i].RequestID = req.ID
		req.Products[i].NormalizeStuds()
	}

	if gerr := req.Validate(); gerr != nil {
		return nil, gerr, nil
	}

	req.History = []ds.HistoryEntry{{
		ID:        uuid.New().String(),
		RequestID: req.ID,
		Seq:       1,
		Status:    lifecycle.StatusDraft,
		Timestamp: now,
		UserID:    p.ID,
		UserName:  p.Name,
	}}

	if err := r.db.WithContext(ctx).Create(req).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	full, err := r.GetFullRequest(ctx, req.ID)
	return full, nil, err
}

// UpdateRequest обновляет поля заявки без смены статуса. Терминальные
// заявки не редактируются. Если передан editedComment, в журнал добавляется
// отметка edited (псевдо-статус, статус заявки не меняется).
func (r *Repository) UpdateRequest(ctx context.Context, id string, apply func(*ds.QuoteRequest), editedComment string, p role.Principal) (*ds.QuoteRequest, *lifecycle.GuardError, error) {
	var gerr *lifecycle.GuardError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		req, err := lockRequest(tx, id)
		if err != nil {
			return err
		}
		if req.Status.IsTerminal() {
			gerr = &lifecycle.GuardError{
				Code:    lifecycle.CodeInvalidTransition,
				Message: "заявка в конечном статусе не редактируется",
			}
			return errGuard
		}

		apply(req)
		for i := range req.Products {
			if req.Products[i].ID == "" {
				req.Products[i].ID = uuid.New().String()
			}
			req.Products[i].RequestID = req.ID
			req.Products[i].NormalizeStuds()
		}
		if gerr = req.Validate(); gerr != nil {
			return errGuard
		}

		req.UpdatedAt = r.now()

		if err := tx.Model(req).Select("client_name", "contact_name", "contact_email",
			"contact_phone", "country", "vehicle_type", "priority", "updated_at").
			Updates(req).Error; err != nil {
			return err
		}

		// Полная замена состава продуктов
		if err := tx.Where("request_id = ?", req.ID).Delete(&ds.Product{}).Error; err != nil {
			return err
		}
		if len(req.Products) > 0 {
			if err := tx.Create(&req.Products).Error; err != nil {
				return err
			}
		}

		if editedComment != "" {
			if err := appendHistory(tx, req, lifecycle.StatusEdited, p, editedComment, r.now()); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, errGuard) {
		return nil, gerr, nil
	}
	if err != nil {
		return nil, nil, err
	}

	full, err := r.GetFullRequest(ctx, id)
	return full, nil, err
}

// DeleteRequest — жёсткое удаление (только административное)
func (r *Repository) DeleteRequest(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&ds.QuoteRequest{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// errGuard — внутренний маркер отката транзакции из-за guard-отказа
var errGuard = errors.New("guard rejected")

func lockRequest(tx *gorm.DB, id string) (*ds.QuoteRequest, error) {
	var req ds.QuoteRequest
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Products").
		First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// appendHistory добавляет запись журнала со следующим порядковым номером.
// Записи никогда не изменяются и не удаляются.
func appendHistory(tx *gorm.DB, req *ds.QuoteRequest, status lifecycle.Status, p role.Principal, comment string, at time.Time) error {
	var maxSeq int
	if err := tx.Model(&ds.HistoryEntry{}).
		Where("request_id = ?", req.ID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error; err != nil {
		return err
	}

	entry := ds.HistoryEntry{
		ID:        uuid.New().String(),
		RequestID: req.ID,
		Seq:       maxSeq + 1,
		Status:    status,
		Timestamp: at,
		UserID:    p.ID,
		UserName:  p.Name,
		Comment:   comment,
	}
	return tx.Create(&entry).Error
}
