package app

import (
	"fmt"

	"social_story_service/internal/member/domain"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	Usecase MemberUseCase
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(usecase MemberUseCase) *MemberHandler {
	return &MemberHandler{Usecase: usecase}
}

func statusFromKind(err error) int {
	switch errprocess.KindOf(err) {
	case errprocess.KindValidation:
		return fiber.StatusBadRequest
	case errprocess.KindNotFound:
		return fiber.StatusNotFound
	case errprocess.KindForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

func callerID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("c.Locals(%s) is nil", middlewares.TokenMemberID)
	}
	return id, nil
}

// Register 注册新用户
func (h *MemberHandler) Register(c *fiber.Ctx) error {
	var req domain.RegisterReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	logger.Log.Debug("Register request", zap.String("email", req.Email))

	if err := h.Usecase.Register(c.Context(), req); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "register success"})
}

// Login 用户登录
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	type request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	res, err := h.Usecase.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"token": res.Token, "member_id": res.MemberID, "message": "login success"})
}

// Follow 追蹤其他使用者
func (h *MemberHandler) Follow(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.Follow(c.Context(), caller, c.Params("memberID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "follow success"})
}

// Unfollow 解除追蹤
func (h *MemberHandler) Unfollow(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.Unfollow(c.Context(), caller, c.Params("memberID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "unfollow success"})
}

// Following 取呼叫者的追蹤名單
func (h *MemberHandler) Following(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ids, err := h.Usecase.FollowingIDs(c.Context(), caller)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"following": ids})
}
