package handler

import (
	"errors"
	"fmt"
	"net/http"

	"backend/internal/app/ds"
	"backend/internal/app/dto"
	"backend/internal/app/lifecycle"
	"backend/internal/app/repository"
	"backend/internal/app/role"
	"backend/internal/app/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// APIHandler содержит обработчики для REST API
type APIHandler struct {
	Repository  *repository.Repository
	MinIOClient *storage.MinIOClient
	AuthHandler *AuthHandler
}

func NewAPIHandler(r *repository.Repository, minioClient *storage.MinIOClient, authHandler *AuthHandler) *APIHandler {
	return &APIHandler{
		Repository:  r,
		MinIOClient: minioClient,
		AuthHandler: authHandler,
	}
}

// Получение principal текущего пользователя из контекста
func (h *APIHandler) getPrincipal(c *gin.Context) (role.Principal, error) {
	userID, exists := c.Get("userID")
	if !exists {
		logrus.Warn("userID not found in context")
		return role.Principal{}, fmt.Errorf("user not authenticated")
	}

	id, ok := userID.(uint)
	if !ok {
		logrus.Errorf("getPrincipal: invalid userID type: %T", userID)
		return role.Principal{}, fmt.Errorf("invalid user ID")
	}

	userName, _ := c.Get("userName")
	name, _ := userName.(string)

	userRole, _ := c.Get("userRole")
	r, _ := userRole.(role.Role)

	return role.Principal{
		ID:   fmt.Sprintf("%d", id),
		Name: name,
		Role: r,
	}, nil
}

// ============ Вспомогательные функции ============

func (h *APIHandler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: message,
	})
}

// guardErrorResponse отдаёт guard-ошибку с кодом и полем, чтобы клиент
// мог показать сообщение у конкретного поля формы
func (h *APIHandler) guardErrorResponse(c *gin.Context, gerr *lifecycle.GuardError) {
	statusCode := http.StatusBadRequest
	switch gerr.Code {
	case lifecycle.CodeForbidden:
		statusCode = http.StatusForbidden
	case lifecycle.CodeInvalidTransition:
		statusCode = http.StatusConflict
	}
	c.JSON(statusCode, dto.ErrorResponse{
		Status:  "fail",
		Message: gerr.Message,
		Code:    string(gerr.Code),
		Field:   gerr.Field,
	})
}

func (h *APIHandler) successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := dto.SuccessResponse{
		Status:  "success",
		Message: message,
	}
	if data != nil {
		response.Data = data
	}
	c.JSON(statusCode, response)
}

func toSummary(r ds.QuoteRequest) dto.RequestSummary {
	return dto.RequestSummary{
		ID:            r.ID,
		Status:        r.Status,
		Priority:      r.Priority,
		ClientName:    r.ClientName,
		VehicleType:   r.VehicleType,
		Country:       r.Country,
		CreatedBy:     r.CreatedBy,
		CreatedByName: r.CreatedByName,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ============ ДОМЕН ЗАЯВКИ ============

// GetRequestSummaries получает список заявок (summary-проекция)
// @Summary Список заявок
// @Description Возвращает лёгкую summary-проекцию заявок для списков и периодического опроса
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.SummaryListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/requests/summary [get]
func (h *APIHandler) GetRequestSummaries(c *gin.Context) {
	p, err := h.getPrincipal(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return
	}

	requests, err := h.Repository.GetSummaries(c.Request.Context(), p)
	if err != nil {
		logrus.Error("Error getting request summaries: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения заявок")
		return
	}

	summaries := make([]dto.RequestSummary, len(requests))
	for i, r := range requests {
		summaries[i] = toSummary(r)
	}

	c.JSON(http.StatusOK, dto.SummaryListResponse{
		Requests: summaries,
		Total:    len(summaries),
	})
}

// GetRequest получает полную запись заявки
// @Summary Получение заявки по ID
// @Description Возвращает полную запись: продукты, журнал, поэтапные блоки, вложения
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} ds.QuoteRequest
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id} [get]
func (h *APIHandler) GetRequest(c *gin.Context) {
	id := c.Param("id")

	req, err := h.Repository.GetFullRequest(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error getting request: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения заявки")
		return
	}

	c.JSON(http.StatusOK, req)
}

// CreateRequest создает новую заявку
// @Summary Создание заявки
// @Description Создаёт заявку в статусе draft с первой записью журнала
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRequestRequest true "Данные заявки"
// @Success 201 {object} ds.QuoteRequest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/requests [post]
func (h *APIHandler) CreateRequest(c *gin.Context) {
	p, err := h.getPrincipal(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return
	}

	var reqBody dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	req := &ds.QuoteRequest{
		ClientName:   reqBody.ClientName,
		ContactName:  reqBody.ContactName,
		ContactEmail: reqBody.ContactEmail,
		ContactPhone: reqBody.ContactPhone,
		Country:      reqBody.Country,
		VehicleType:  reqBody.VehicleType,
		Priority:     lifecycle.Priority(reqBody.Priority),
		Products:     productsFromInput(reqBody.Products),
	}
	if req.Priority == "" {
		req.Priority = lifecycle.PriorityNormal
	}

	full, gerr, err := h.Repository.CreateRequest(c.Request.Context(), req, p)
	if gerr != nil {
		h.guardErrorResponse(c, gerr)
		return
	}
	if err != nil {
		logrus.Error("Error creating request: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка создания заявки")
		return
	}

	c.JSON(http.StatusCreated, full)
}

// UpdateRequest обновляет поля заявки
// @Summary Обновление полей заявки
// @Description Обновляет поля без смены статуса; при editedComment добавляет в журнал отметку edited
// @Tags Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param request body dto.UpdateRequestRequest true "Данные для обновления"
// @Success 200 {object} ds.QuoteRequest
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id} [put]
func (h *APIHandler) UpdateRequest(c *gin.Context) {
	p, err := h.getPrincipal(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return
	}

	id := c.Param("id")

	var reqBody dto.UpdateRequestRequest
	if err := c.ShouldBindJSON(&reqBody); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Неверные данные: "+err.Error())
		return
	}

	apply := func(req *ds.QuoteRequest) {
		if reqBody.ClientName != nil {
			req.ClientName = *reqBody.ClientName
		}
		if reqBody.ContactName != nil {
			req.ContactName = *reqBody.ContactName
		}
		if reqBody.ContactEmail != nil {
			req.ContactEmail = *reqBody.ContactEmail
		}
		if reqBody.ContactPhone != nil {
			req.ContactPhone = *reqBody.ContactPhone
		}
		if reqBody.Country != nil {
			req.Country = *reqBody.Country
		}
		if reqBody.VehicleType != nil {
			req.VehicleType = *reqBody.VehicleType
		}
		if reqBody.Priority != nil {
			req.Priority = lifecycle.Priority(*reqBody.Priority)
		}
		if reqBody.Products != nil {
			req.Products = productsFromInput(reqBody.Products)
		}
	}

	full, gerr, err := h.Repository.UpdateRequest(c.Request.Context(), id, apply, reqBody.EditedComment, p)
	if gerr != nil {
		h.guardErrorResponse(c, gerr)
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error updating request: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка обновления заявки")
		return
	}

	c.JSON(http.StatusOK, full)
}

// DeleteRequest удаляет заявку
// @Summary Удаление заявки
// @Description Жёсткое удаление заявки (только администратор)
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/requests/{id} [delete]
func (h *APIHandler) DeleteRequest(c *gin.Context) {
	id := c.Param("id")

	err := h.Repository.DeleteRequest(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Заявка не найдена")
		return
	}
	if err != nil {
		logrus.Error("Error deleting request: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка удаления заявки")
		return
	}

	h.successResponse(c, http.StatusOK, "Заявка успешно удалена", nil)
}

// SearchRequests поиск заявок
// @Summary Поиск заявок
// @Description Ищет заявки по клиенту, технике или стране; запрос отменяем контекстом
// @Tags Requests
// @Produce json
// @Security BearerAuth
// @Param q query string true "Поисковая строка"
// @Param limit query int false "Максимум результатов"
// @Success 200 {object} dto.SummaryListResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/requests/search [get]
func (h *APIHandler) SearchRequests(c *gin.Context) {
	query := c.Query("q")
	limit := 0
	if l := c.Query("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	requests, err := h.Repository.SearchRequests(c.Request.Context(), query, limit)
	if err != nil {
		if c.Request.Context().Err() != nil {
			// Клиент оборвал запрос — не ошибка
			return
		}
		logrus.Error("Error searching requests: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка поиска заявок")
		return
	}

	summaries := make([]dto.RequestSummary, len(requests))
	for i, r := range requests {
		summaries[i] = toSummary(r)
	}

	c.JSON(http.StatusOK, dto.SummaryListResponse{
		Requests: summaries,
		Total:    len(summaries),
	})
}

// GetMetrics отчёт по заявкам
// @Summary Метрики по заявкам
// @Description Количество заявок по статусам и приоритетам, утверждённая стоимость
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.MetricsResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/requests/metrics [get]
func (h *APIHandler) GetMetrics(c *gin.Context) {
	byStatus, byPriority, approvedValue, err := h.Repository.Metrics(c.Request.Context())
	if err != nil {
		logrus.Error("Error getting metrics: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения метрик")
		return
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	c.JSON(http.StatusOK, dto.MetricsResponse{
		Total:         total,
		ByStatus:      byStatus,
		ByPriority:    byPriority,
		ApprovedValue: approvedValue,
	})
}

func productsFromInput(inputs []dto.ProductInput) []ds.Product {
	products := make([]ds.Product, len(inputs))
	for i, in := range inputs {
		mode := in.StudsMode
		if mode == "" {
			mode = ds.StudsModeStandard
		}
		products[i] = ds.Product{
			AxleType:              in.AxleType,
			AxleTypeOther:         in.AxleTypeOther,
			ArticulationType:      in.ArticulationType,
			ArticulationTypeOther: in.ArticulationTypeOther,
			Configuration:         in.Configuration,
			ConfigurationOther:    in.ConfigurationOther,
			LoadKg:                in.LoadKg,
			SpeedKmh:              in.SpeedKmh,
			TyreSize:              in.TyreSize,
			TrackMm:               in.TrackMm,
			WheelBaseMm:           in.WheelBaseMm,
			StudsMode:             mode,
			StudsCount:            in.StudsCount,
			PCDMm:                 in.PCDMm,
			StudsSpecial:          in.StudsSpecial,
			BrakeType:             in.BrakeType,
			BrakeSize:             in.BrakeSize,
		}
	}
	return products
}
