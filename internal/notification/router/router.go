package router

import (
	"social_story_service/internal/notification/app"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册通知相关的路由
func RegisterRoutes(r *fiber.App, notificationHandler *app.NotificationHandler) {
	notificationRoutes := r.Group("/notifications")
	notificationRoutes.Use(middlewares.JWTMiddleware())

	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/unread-count", notificationHandler.UnreadCount)
	notificationRoutes.Put("/:notificationID/read", notificationHandler.MarkRead)
	notificationRoutes.Put("/read-all", notificationHandler.MarkAllRead)
}
