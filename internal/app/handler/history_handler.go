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

// GetRequestHistory возвращает журнал заявки
// @Summary Журнал заявки
// @Description Журнал изменений в порядке вставки; filter=lifecycle убирает отметки edited
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param filter query string false "lifecycle — только настоящие переходы"
// @Success 200 {object} dto.HistoryResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id}/history [get]
func (h *APIHandler) GetRequestHistory(c *gin.Context) {
	id := c.Param("id")

	ledger, err := h.Repository.GetRequestLedger(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error getting request history: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения журнала")
		return
	}

	resp := dto.HistoryResponse{RequestID: id}

	if stage, ok := ledger.CurrentStage(); ok {
		resp.CurrentStage = stage
	}
	if decision, ok := ledger.LastEntryMatching(
		lifecycle.StatusGMApproved, lifecycle.StatusGMRejected); ok {
		resp.LastDecision = &decision
	}

	if c.Query("filter") == "lifecycle" {
		ledger = ledger.FilterLifecycle()
	}
	resp.Entries = ledger

	c.JSON(http.StatusOK, resp)
}
