package app

import (
	"fmt"

	"social_story_service/internal/story/domain"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StoryHandler 处理限時動態相关的 HTTP 请求
type StoryHandler struct {
	Usecase StoryUseCase
}

// NewStoryHandler 创建新的 StoryHandler
func NewStoryHandler(usecase StoryUseCase) *StoryHandler {
	return &StoryHandler{Usecase: usecase}
}

// statusFromKind 錯誤類別對應 HTTP status
func statusFromKind(err error) int {
	switch errprocess.KindOf(err) {
	case errprocess.KindValidation:
		return fiber.StatusBadRequest
	case errprocess.KindNotFound:
		return fiber.StatusNotFound
	case errprocess.KindForbidden:
		return fiber.StatusForbidden
	case errprocess.KindUnsupportedMedia:
		return fiber.StatusUnsupportedMediaType
	case errprocess.KindPayloadTooLarge:
		return fiber.StatusRequestEntityTooLarge
	default:
		return fiber.StatusInternalServerError
	}
}

// callerID 取 JWT middleware 放進 Locals 的 member id
func callerID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("c.Locals(%s) is nil", middlewares.TokenMemberID)
	}
	return id, nil
}

// Create 發布新動態
func (h *StoryHandler) Create(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req domain.CreateStoryReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	req.AuthorID = caller

	logger.Log.Debug("CreateStory request", zap.String("author_id", caller))

	story, err := h.Usecase.CreateStory(c.Context(), req)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// Feed 取呼叫者追蹤對象的動態，依作者分組
func (h *StoryHandler) Feed(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	groups, err := h.Usecase.GetStories(c.Context(), caller)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"authors": groups})
}

// UserStories 取指定作者的動態
func (h *StoryHandler) UserStories(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	stories, err := h.Usecase.GetUserStories(c.Context(), caller, c.Params("authorID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"stories": stories})
}

// View 觀看動態並取得 reel 導覽
func (h *StoryHandler) View(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.Usecase.ViewStory(c.Context(), caller, c.Params("storyID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// UpdateProgress 更新觀看進度
func (h *StoryHandler) UpdateProgress(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	type request struct {
		Progress int `json:"progress"`
	}
	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	res, err := h.Usecase.UpdateProgress(c.Context(), caller, c.Params("storyID"), req.Progress)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// Pause 暫停播放
func (h *StoryHandler) Pause(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	progress, err := h.Usecase.PauseProgress(c.Context(), caller, c.Params("storyID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"current_progress": progress})
}

// Resume 恢復播放
func (h *StoryHandler) Resume(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	progress, err := h.Usecase.ResumeProgress(c.Context(), caller, c.Params("storyID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"current_progress": progress})
}

// ToggleStar 切換按星
func (h *StoryHandler) ToggleStar(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	res, err := h.Usecase.ToggleStar(c.Context(), caller, c.Params("storyID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(res)
}

// Delete 作者刪除自己的動態
func (h *StoryHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.DeleteStory(c.Context(), caller, c.Params("storyID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "delete success"})
}
