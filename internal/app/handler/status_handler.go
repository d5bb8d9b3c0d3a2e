package handler

import (
	"errors"
	"net/http"

	"backend/internal/app/dto"
	"backend/internal/app/lifecycle"
	"backend/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ChangeRequestStatus выполняет guard-переход заявки
// @Summary Смена статуса заявки
// @Description Применяет действие из таблицы переходов; сервер заново проверяет роль, статус и payload
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body dto.StatusChangeRequest true "Действие и данные перехода"
// @Success 200 {object} ds.QuoteRequest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/requests/{id}/status [post]
func (h *APIHandler) ChangeRequestStatus(c *gin.Context) {
	p, err := h.getPrincipal(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return
	}

	id := c.Param("id")

	var reqBody dto.StatusChangeRequest
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	payload := payloadFromDTO(reqBody)

	full, gerr, err := h.Repository.ApplyTransition(c.Request.Context(), id, reqBody.Action, p, payload, reqBody.Comment)
	if gerr != nil {
		h.guardErrorResponse(c, gerr)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error applying transition: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка смены статуса")
		return
	}

	c.JSON(http.StatusOK, full)
}

// payloadFromDTO собирает типизированный payload перехода из тела запроса.
// Неподходящий или отсутствующий блок данных отбракует guard-валидация.
func payloadFromDTO(req dto.StatusChangeRequest) lifecycle.Payload {
	switch req.Action {
	case lifecycle.ActionRequestClarification:
		return lifecycle.CommentPayload{Comment: req.Comment}

	case lifecycle.ActionAccept:
		if req.Accept == nil {
			return lifecycle.AcceptPayload{}
		}
		return lifecycle.AcceptPayload{
			AcceptanceMessage: req.Accept.AcceptanceMessage,
			ExpectedReplyDate: req.Accept.ExpectedReplyDate,
		}

	case lifecycle.ActionSaveDesignResult:
		if req.DesignResult == nil {
			return lifecycle.DesignResultPayload{}
		}
		return lifecycle.DesignResultPayload{
			Comments:      req.DesignResult.Comments,
			AttachmentIDs: req.DesignResult.AttachmentIDs,
		}

	case lifecycle.ActionSubmitCosting:
		if req.Costing == nil {
			return lifecycle.CostingPayload{}
		}
		return lifecycle.CostingPayload{
			SellingPrice: req.Costing.SellingPrice,
			Margin:       req.Costing.Margin,
			VATMode:      req.Costing.VATMode,
			VATRate:      req.Costing.VATRate,
			Comments:     req.Costing.Comments,
		}

	case lifecycle.ActionSubmitForApproval:
		if req.Approval == nil {
			return lifecycle.ApprovalPayload{}
		}
		terms := make([]lifecycle.PaymentTerm, len(req.Approval.PaymentTerms))
		for i, t := range req.Approval.PaymentTerms {
			terms[i] = lifecycle.PaymentTerm{
				PaymentNumber:  t.PaymentNumber,
				PaymentName:    t.PaymentName,
				PaymentPercent: t.PaymentPercent,
				Comments:       t.Comments,
			}
		}
		return lifecycle.ApprovalPayload{
			FinalPrice:           req.Approval.FinalPrice,
			Margin:               req.Approval.Margin,
			ExpectedDeliveryDate: req.Approval.ExpectedDeliveryDate,
			Incoterm:             req.Approval.Incoterm,
			PaymentTerms:         terms,
			Comments:             req.Approval.Comments,
		}

	case lifecycle.ActionApprove, lifecycle.ActionReject,
		lifecycle.ActionCancel, lifecycle.ActionClose:
		if req.Comment != "" {
			return lifecycle.CommentPayload{Comment: req.Comment}
		}
		return nil
	}

	// submit, set_under_review, start_costing, start_sales_followup
	return nil
}
