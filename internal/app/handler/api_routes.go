package handler

import (
	"net/http"

	"backend/internal/app/middleware"
	"backend/internal/app/role"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterAPIRoutes регистрирует все маршруты REST API
func (h *APIHandler) RegisterAPIRoutes(router *gin.Engine, authMiddleware *middleware.AuthMiddleware) {
	// Swagger документация
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Проверка доступности сервиса
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ============ Аутентификация ============
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", h.AuthHandler.RegisterUser)
		auth.POST("/login", h.AuthHandler.LoginUser)
		auth.POST("/logout", authMiddleware.WithAuthCheck(), h.AuthHandler.LogoutUser)
		auth.GET("/profile", authMiddleware.WithAuthCheck(), h.AuthHandler.GetUserProfile)
		auth.PUT("/profile", authMiddleware.WithAuthCheck(), h.AuthHandler.UpdateUserProfile)
	}

	// ============ Заявки ============
	requests := router.Group("/api/requests")
	requests.Use(authMiddleware.WithAuthCheck())
	{
		requests.GET("/summary", h.GetRequestSummaries)
		requests.GET("/search", h.SearchRequests)
		requests.GET("/metrics", h.GetMetrics)

		requests.GET("/:id", h.GetRequest)
		requests.GET("/:id/history", h.GetRequestHistory)
		requests.POST("", h.CreateRequest)
		requests.PUT("/:id", h.UpdateRequest)

		// Смена статуса: роль проверяется таблицей переходов, не маршрутом
		requests.POST("/:id/status", h.ChangeRequestStatus)

		// Коммерческое предложение
		requests.POST("/:id/offer/seed", h.SeedOfferLines)
		requests.PUT("/:id/offer", h.UpdateOfferLines)

		// Вложения
		requests.POST("/:id/attachments", h.UploadAttachment)
	}

	// Жёсткое удаление доступно только администратору
	router.DELETE("/api/requests/:id",
		authMiddleware.WithAuthCheck(role.Admin), h.DeleteRequest)

	router.DELETE("/api/attachments/:attachment_id",
		authMiddleware.WithAuthCheck(), h.DeleteAttachment)
}
