package app

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	mediaapp "social_story_service/internal/media/app"
	"social_story_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mediaForm 組一個帶檔案的 multipart 請求
func mediaForm(t *testing.T, recipientID string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("recipient_id", recipientID))
	part, err := w.CreateFormFile("file", "x.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("png bits"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

// 測試收件人不合法時在進 pipeline 前就被擋下
func TestMessageHandler_SendMediaRejectsRecipientBeforeIngest(t *testing.T) {
	mockMedia := new(MockIngester)
	h := NewMessageHandler(nil, mediaapp.NewUploadGate(t.TempDir()), mockMedia)

	r := fiber.New()
	r.Post("/messages/media", func(c *fiber.Ctx) error {
		c.Locals(middlewares.TokenMemberID, "user-a")
		return h.SendMedia(c)
	})

	// 空收件人與自己發給自己都拒
	for _, recipient := range []string{"", "user-a"} {
		body, contentType := mediaForm(t, recipient)
		req := httptest.NewRequest(fiber.MethodPost, "/messages/media", body)
		req.Header.Set("Content-Type", contentType)

		resp, err := r.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	}

	mockMedia.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything, mock.Anything)
}
