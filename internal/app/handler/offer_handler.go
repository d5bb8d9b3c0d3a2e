package handler

import (
	"errors"
	"net/http"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Обработчики проекции коммерческого предложения

// SeedOfferLines создаёт строки предложения из продуктов заявки
// @Summary Инициализация предложения
// @Description Создаёт черновые строки коммерческого предложения из продуктов заявки
// @Tags Offer
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id}/offer/seed [post]
func (h *APIHandler) SeedOfferLines(c *gin.Context) {
	id := c.Param("id")

	lines, err := h.Repository.SeedOfferLines(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error seeding offer lines: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка создания предложения")
		return
	}

	h.successResponse(c, http.StatusOK, "Строки предложения созданы", lines)
}

// UpdateOfferLines обновляет черновые строки предложения
// @Summary Обновление предложения
// @Description Заменяет строки предложения; после утверждения GM предложение зафиксировано
// @Tags Offer
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body dto.UpdateOfferRequest true "Строки предложения"
// @Success 200 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id}/offer [put]
func (h *APIHandler) UpdateOfferLines(c *gin.Context) {
	id := c.Param("id")

	var reqBody dto.UpdateOfferRequest
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	lines := make([]ds.ClientOfferLine, len(reqBody.Lines))
	for i, l := range reqBody.Lines {
		lines[i] = ds.ClientOfferLine{
			ProductID:   l.ProductID,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		}
	}

	saved, gerr, err := h.Repository.UpdateOfferLines(c.Request.Context(), id, lines)
	if gerr != nil {
		h.guardErrorResponse(c, gerr)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error updating offer lines: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка обновления предложения")
		return
	}

	h.successResponse(c, http.StatusOK, "Предложение обновлено", saved)
}
