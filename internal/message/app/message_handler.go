package app

import (
	"fmt"

	mediaapp "social_story_service/internal/media/app"
	"social_story_service/internal/message/domain"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHandler 处理訊息相关的 HTTP 请求
type MessageHandler struct {
	Usecase MessageUseCase
	Gate    *mediaapp.UploadGate
	Media   mediaapp.Ingester
}

// NewMessageHandler 创建新的 MessageHandler
func NewMessageHandler(usecase MessageUseCase, gate *mediaapp.UploadGate, media mediaapp.Ingester) *MessageHandler {
	return &MessageHandler{
		Usecase: usecase,
		Gate:    gate,
		Media:   media,
	}
}

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

func callerID(c *fiber.Ctx) (string, error) {
	id, ok := c.Locals(middlewares.TokenMemberID).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("c.Locals(%s) is nil", middlewares.TokenMemberID)
	}
	return id, nil
}

// SendText 發文字訊息
func (h *MessageHandler) SendText(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req domain.SendTextReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	req.SenderID = caller

	msg, err := h.Usecase.SendText(c.Context(), req)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// SendStoryReply 回覆動態
func (h *MessageHandler) SendStoryReply(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	var req domain.SendStoryReplyReq
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	req.SenderID = caller

	msg, err := h.Usecase.SendStoryReply(c.Context(), req)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// SendMedia 發媒體訊息：上傳檔先過 gate 再進 pipeline
func (h *MessageHandler) SendMedia(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	recipientID := c.FormValue("recipient_id")
	// 收件人先驗，不合法就不浪費一輪 pipeline
	if recipientID == "" || recipientID == caller {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid recipient"})
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file missing"})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file open failed"})
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	logger.Log.Debug("SendMedia request",
		zap.String("sender_id", caller),
		zap.String("file_name", fileHeader.Filename),
		zap.String("content_type", contentType))

	accepted, err := h.Gate.Save(src, fileHeader.Filename, contentType, fileHeader.Size)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}

	ingested, err := h.Media.Ingest(c.Context(), accepted, fileHeader.Filename)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}

	msg, err := h.Usecase.SendMedia(c.Context(), domain.SendMediaReq{
		SenderID:    caller,
		RecipientID: recipientID,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
	}, ingested)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// Conversations 對話列表
func (h *MessageHandler) Conversations(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	convs, err := h.Usecase.GetConversations(c.Context(), caller)
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"conversations": convs})
}

// Messages 取對話訊息並歸零未讀
func (h *MessageHandler) Messages(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	msgs, err := h.Usecase.GetMessages(c.Context(), caller, c.Params("conversationID"))
	if err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// MarkRead 標記已讀
func (h *MessageHandler) MarkRead(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.MarkAsRead(c.Context(), caller, c.Params("messageID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "read"})
}

// Delete 刪除訊息
func (h *MessageHandler) Delete(c *fiber.Ctx) error {
	caller, err := callerID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.Usecase.DeleteMessage(c.Context(), caller, c.Params("messageID")); err != nil {
		return c.Status(statusFromKind(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"message": "delete success"})
}
