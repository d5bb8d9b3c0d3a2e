package repository

import (
	"context"
	"errors"

	"backend/internal/app/ds"
	"backend/internal/app/lifecycle"
	"backend/internal/app/role"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplyTransition — авторитетная серверная проверка и применение перехода.
// Guard-таблица прогоняется заново независимо от клиентских проверок.
// Переход атомарен: запись журнала, новый статус, слияние payload и
// updated_at фиксируются одной транзакцией — частичное применение
// снаружи не наблюдаемо.
func (r *Repository) ApplyTransition(ctx context.Context, id string, action lifecycle.Action, p role.Principal, payload lifecycle.Payload, comment string) (*ds.QuoteRequest, *lifecycle.GuardError, error) {
	var gerr *lifecycle.GuardError

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req ds.QuoteRequest
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&req, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		now := r.now()
		next, guardErr := lifecycle.NextStatus(req.Status, action, p.Role, payload, now)
		if guardErr != nil {
			gerr = guardErr
			return errGuard
		}

		if err := appendHistory(tx, &req, next, p, comment, now); err != nil {
			return err
		}

		if err := mergePayload(tx, &req, action, payload); err != nil {
			return err
		}

		// Утверждение GM фиксирует строки коммерческого предложения —
		// обратного пути из locked нет
		if action == lifecycle.ActionApprove {
			if err := lockOfferLines(tx, req.ID); err != nil {
				return err
			}
		}

		return tx.Model(&req).Updates(map[string]interface{}{
			"status":     next,
			"updated_at": now,
		}).Error
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

// mergePayload раскладывает данные перехода по поэтапным блокам заявки.
// Payload уже прошёл валидацию на границе guard — здесь только запись.
func mergePayload(tx *gorm.DB, req *ds.QuoteRequest, action lifecycle.Action, payload lifecycle.Payload) error {
	switch pl := payload.(type) {
	case lifecycle.AcceptPayload:
		block := ds.DesignBlock{RequestID: req.ID}
		if err := tx.Where("request_id = ?", req.ID).FirstOrCreate(&block).Error; err != nil {
			return err
		}
		replyDate := pl.ExpectedReplyDate
		return tx.Model(&block).Updates(map[string]interface{}{
			"acceptance_message":  pl.AcceptanceMessage,
			"expected_reply_date": &replyDate,
		}).Error

	case lifecycle.DesignResultPayload:
		block := ds.DesignBlock{RequestID: req.ID}
		if err := tx.Where("request_id = ?", req.ID).FirstOrCreate(&block).Error; err != nil {
			return err
		}
		if err := tx.Model(&block).Update("comments", pl.Comments).Error; err != nil {
			return err
		}
		// Привязываем вложения результата проработки к заявке
		if len(pl.AttachmentIDs) > 0 {
			return tx.Model(&ds.Attachment{}).
				Where("id IN ?", pl.AttachmentIDs).
				Update("request_id", req.ID).Error
		}
		return nil

	case lifecycle.CostingPayload:
		block := ds.CostingBlock{RequestID: req.ID}
		if err := tx.Where("request_id = ?", req.ID).FirstOrCreate(&block).Error; err != nil {
			return err
		}
		return tx.Model(&block).Updates(map[string]interface{}{
			"selling_price": ds.ClampPrice(pl.SellingPrice),
			"margin":        pl.Margin,
			"vat_mode":      pl.VATMode,
			"vat_rate":      pl.VATRate,
			"comments":      pl.Comments,
		}).Error

	case lifecycle.ApprovalPayload:
		block := ds.SalesBlock{RequestID: req.ID}
		if err := tx.Where("request_id = ?", req.ID).FirstOrCreate(&block).Error; err != nil {
			return err
		}
		deliveryDate := pl.ExpectedDeliveryDate
		if err := tx.Model(&block).Updates(map[string]interface{}{
			"final_price":            ds.ClampPrice(pl.FinalPrice),
			"margin":                 pl.Margin,
			"expected_delivery_date": &deliveryDate,
			"incoterm":               pl.Incoterm,
			"comments":               pl.Comments,
		}).Error; err != nil {
			return err
		}

		// Полная замена набора долей платежей
		if err := tx.Where("sales_block_id = ?", block.ID).Delete(&ds.SalesPaymentTerm{}).Error; err != nil {
			return err
		}
		terms := make([]ds.SalesPaymentTerm, len(pl.PaymentTerms))
		for i, t := range pl.PaymentTerms {
			terms[i] = ds.SalesPaymentTerm{
				SalesBlockID:   block.ID,
				PaymentNumber:  t.PaymentNumber,
				PaymentName:    t.PaymentName,
				PaymentPercent: t.PaymentPercent,
				Comments:       t.Comments,
			}
		}
		if len(terms) > 0 {
			return tx.Create(&terms).Error
		}
		return nil

	case lifecycle.CommentPayload, nil:
		// Комментарий уже записан в журнал
		return nil
	}
	return nil
}

func lockOfferLines(tx *gorm.DB, requestID string) error {
	if err := tx.Model(&ds.QuoteRequest{}).
		Where("id = ?", requestID).
		Update("offer_locked", true).Error; err != nil {
		return err
	}
	return tx.Model(&ds.ClientOfferLine{}).
		Where("request_id = ?", requestID).
		Update("locked", true).Error
}
