package router

import (
	"social_story_service/internal/story/app"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes 注册限時動態相关的路由
func RegisterRoutes(r *fiber.App, storyHandler *app.StoryHandler) {
	storyRoutes := r.Group("/stories")
	storyRoutes.Use(middlewares.JWTMiddleware())

	storyRoutes.Post("/", storyHandler.Create)
	storyRoutes.Get("/", storyHandler.Feed)
	storyRoutes.Get("/user/:authorID", storyHandler.UserStories)
	storyRoutes.Post("/:storyID/view", storyHandler.View)
	storyRoutes.Put("/:storyID/progress", storyHandler.UpdateProgress)
	storyRoutes.Post("/:storyID/pause", storyHandler.Pause)
	storyRoutes.Post("/:storyID/resume", storyHandler.Resume)
	storyRoutes.Post("/:storyID/star", storyHandler.ToggleStar)
	storyRoutes.Delete("/:storyID", storyHandler.Delete)
}
