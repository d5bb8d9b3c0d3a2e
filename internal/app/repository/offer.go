package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backend/internal/app/ds"
	"backend/internal/app/lifecycle"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Методы для проекции коммерческого предложения и отчётности

// SeedOfferLines создаёт черновые строки предложения из продуктов заявки.
// Уже существующие строки не трогаются.
func (r *Repository) SeedOfferLines(ctx context.Context, requestID string) ([]ds.ClientOfferLine, error) {
	req, err := r.GetFullRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(req.OfferLines) > 0 {
		return req.OfferLines, nil
	}
	if len(req.Products) == 0 {
		return nil, nil
	}

	lines := make([]ds.ClientOfferLine, len(req.Products))
	for i, p := range req.Products {
		lines[i] = ds.ClientOfferLine{
			ID:          uuid.New().String(),
			RequestID:   req.ID,
			ProductID:   p.ID,
			Description: offerDescription(p),
			Quantity:    1,
		}
	}
	if err := r.db.WithContext(ctx).Create(&lines).Error; err != nil {
		return nil, fmt.Errorf("failed to seed offer lines: %w", err)
	}
	return lines, nil
}

// UpdateOfferLines заменяет черновые строки предложения. После утверждения
// GM строки зафиксированы и не редактируются — переход односторонний.
func (r *Repository) UpdateOfferLines(ctx context.Context, requestID string, lines []ds.ClientOfferLine) ([]ds.ClientOfferLine, *lifecycle.GuardError, error) {
	var gerr *lifecycle.GuardError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req ds.QuoteRequest
		err := tx.First(&req, "id = ?", requestID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if req.OfferLocked {
			gerr = &lifecycle.GuardError{
				Code:    lifecycle.CodeValidationFailed,
				Field:   "offerLines",
				Message: "предложение зафиксировано после утверждения GM и не редактируется",
			}
			return errGuard
		}

		if err := tx.Where("request_id = ?", requestID).Delete(&ds.ClientOfferLine{}).Error; err != nil {
			return err
		}
		for i := range lines {
			if lines[i].ID == "" {
				lines[i].ID = uuid.New().String()
			}
			lines[i].RequestID = requestID
			lines[i].Quantity = ds.ClampQuantity(lines[i].Quantity)
			lines[i].UnitPrice = ds.ClampPrice(lines[i].UnitPrice)
			lines[i].Locked = false
		}
		if len(lines) > 0 {
			return tx.Create(&lines).Error
		}
		return nil
	})

	if errors.Is(err, errGuard) {
		return nil, gerr, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var saved []ds.ClientOfferLine
	if err := r.db.WithContext(ctx).Where("request_id = ?", requestID).Find(&saved).Error; err != nil {
		return nil, nil, err
	}
	return saved, nil, nil
}

// Metrics агрегирует заявки по статусам и приоритетам
func (r *Repository) Metrics(ctx context.Context) (map[lifecycle.Status]int, map[string]int, float64, error) {
	type statusRow struct {
		Status lifecycle.Status
		Count  int
	}
	var byStatusRows []statusRow
	if err := r.db.WithContext(ctx).Model(&ds.QuoteRequest{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Scan(&byStatusRows).Error; err != nil {
		return nil, nil, 0, err
	}

	type priorityRow struct {
		Priority string
		Count    int
	}
	var byPriorityRows []priorityRow
	if err := r.db.WithContext(ctx).Model(&ds.QuoteRequest{}).
		Select("priority, COUNT(*) as count").
		Group("priority").
		Scan(&byPriorityRows).Error; err != nil {
		return nil, nil, 0, err
	}

	var approvedValue float64
	if err := r.db.WithContext(ctx).Model(&ds.SalesBlock{}).
		Joins("JOIN quote_requests ON quote_requests.id = sales_blocks.request_id").
		Where("quote_requests.status IN ?", []lifecycle.Status{lifecycle.StatusGMApproved, lifecycle.StatusClosed}).
		Select("COALESCE(SUM(sales_blocks.final_price), 0)").
		Scan(&approvedValue).Error; err != nil {
		return nil, nil, 0, err
	}

	byStatus := make(map[lifecycle.Status]int, len(byStatusRows))
	for _, row := range byStatusRows {
		byStatus[row.Status] = row.Count
	}
	byPriority := make(map[string]int, len(byPriorityRows))
	for _, row := range byPriorityRows {
		byPriority[row.Priority] = row.Count
	}
	return byStatus, byPriority, approvedValue, nil
}

func offerDescription(p ds.Product) string {
	parts := make([]string, 0, 3)
	if v := classifierValue(p.AxleType, p.AxleTypeOther); v != "" {
		parts = append(parts, v)
	}
	if v := classifierValue(p.ArticulationType, p.ArticulationTypeOther); v != "" {
		parts = append(parts, v)
	}
	if v := classifierValue(p.Configuration, p.ConfigurationOther); v != "" {
		parts = append(parts, v)
	}
	if len(parts) == 0 {
		return "Изделие по заявке"
	}
	return strings.Join(parts, " / ")
}

func classifierValue(value, other string) string {
	if value == ds.OtherValue {
		return other
	}
	return value
}
