package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"backend/internal/app/ds"
	"backend/internal/app/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Обработчики вложений (чертежи, спецификации). Файлы хранятся в MinIO,
// ядро оперирует только непрозрачными ссылками.

// UploadAttachment загружает файл вложения
// @Summary Загрузка вложения
// @Description Загружает файл в MinIO и привязывает вложение к продукту заявки
// @Tags Attachments
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заявки"
// @Param product_id formData string false "ID продукта"
// @Param file formData file true "Файл вложения"
// @Success 201 {object} dto.SuccessResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/requests/{id}/attachments [post]
func (h *APIHandler) UploadAttachment(c *gin.Context) {
	p, err := h.getPrincipal(c)
	if err != nil {
		h.errorResponse(c, http.StatusUnauthorized, "Ошибка авторизации")
		return
	}

	requestID := c.Param("id")
	productID := c.PostForm("product_id")

	file, err := c.FormFile("file")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "Файл не найден в запросе")
		return
	}

	openedFile, err := file.Open()
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка чтения файла")
		return
	}
	defer openedFile.Close()

	fileData, err := io.ReadAll(openedFile)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка чтения файла")
		return
	}

	var objectName, fileURL string
	if h.MinIOClient != nil {
		objectName, err = h.MinIOClient.UploadFile(fileData, file.Filename)
		if err != nil {
			logrus.Error("Error uploading to MinIO: ", err)
			h.errorResponse(c, http.StatusInternalServerError, "Ошибка загрузки файла")
			return
		}
		fileURL, err = h.MinIOClient.GetFileURL(objectName)
		if err != nil {
			logrus.Warnf("Failed to get presigned URL for %s: %v", objectName, err)
		}
	}

	att := &ds.Attachment{
		ID:         uuid.New().String(),
		RequestID:  requestID,
		ProductID:  productID,
		Filename:   file.Filename,
		ObjectName: objectName,
		URL:        fileURL,
		Type:       file.Header.Get("Content-Type"),
		UploadedAt: time.Now(),
		UploadedBy: p.ID,
	}

	if err := h.Repository.CreateAttachment(c.Request.Context(), att); err != nil {
		logrus.Error("Error saving attachment: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка сохранения вложения")
		return
	}

	h.successResponse(c, http.StatusCreated, "Вложение загружено", att)
}

// DeleteAttachment удаляет вложение
// @Summary Удаление вложения
// @Description Удаляет вложение и его файл из MinIO
// @Tags Attachments
// @Produce json
// @Security BearerAuth
// @Param attachment_id path string true "ID вложения"
// @Success 200 {object} dto.SuccessResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/attachments/{attachment_id} [delete]
func (h *APIHandler) DeleteAttachment(c *gin.Context) {
	id := c.Param("attachment_id")

	att, err := h.Repository.GetAttachment(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		h.errorResponse(c, http.StatusNotFound, "Вложение не найдено")
		return
	}
	if err != nil {
		logrus.Error("Error getting attachment: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка получения вложения")
		return
	}

	if h.MinIOClient != nil && att.ObjectName != "" {
		if err := h.MinIOClient.DeleteFile(att.ObjectName); err != nil {
			logrus.Warnf("Failed to delete file from MinIO: %v", err)
		}
	}

	if err := h.Repository.DeleteAttachment(c.Request.Context(), id); err != nil {
		logrus.Error("Error deleting attachment: ", err)
		h.errorResponse(c, http.StatusInternalServerError, "Ошибка удаления вложения")
		return
	}

	h.successResponse(c, http.StatusOK, "Вложение удалено", nil)
}
