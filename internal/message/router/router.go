package router

import (
	"social_story_service/internal/message/app"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册訊息相关的路由
func RegisterRoutes(r *fiber.App, messageHandler *app.MessageHandler) {
	messageRoutes := r.Group("/messages")
	messageRoutes.Use(middlewares.JWTMiddleware())

	messageRoutes.Post("/text", messageHandler.SendText)
	messageRoutes.Post("/story-reply", messageHandler.SendStoryReply)
	messageRoutes.Post("/media", messageHandler.SendMedia)
	messageRoutes.Put("/:messageID/read", messageHandler.MarkRead)
	messageRoutes.Delete("/:messageID", messageHandler.Delete)

	conversationRoutes := r.Group("/conversations")
	conversationRoutes.Use(middlewares.JWTMiddleware())
	conversationRoutes.Get("/", messageHandler.Conversations)
	conversationRoutes.Get("/:conversationID/messages", messageHandler.Messages)
}
