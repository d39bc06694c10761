package router

import (
	"social_story_service/internal/member/app"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册用户相关的路由
func RegisterRoutes(r *fiber.App, memberHandler *app.MemberHandler) {
	memberRoutes := r.Group("/member")
	memberRoutes.Post("/register", memberHandler.Register)
	memberRoutes.Post("/login", memberHandler.Login)

	memberRoutes.Use(middlewares.JWTMiddleware())
	memberRoutes.Post("/follow/:memberID", memberHandler.Follow)
	memberRoutes.Delete("/follow/:memberID", memberHandler.Unfollow)
	memberRoutes.Get("/following", memberHandler.Following)
}
