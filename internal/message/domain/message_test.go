package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 測試成對鍵與參數順序無關
func TestDMKeyOrderIndependent(t *testing.T) {
	assert.Equal(t, DMKey("user-a", "user-b"), DMKey("user-b", "user-a"))
	assert.Equal(t, "user-a|user-b", DMKey("user-b", "user-a"))
}

// 測試已讀登記的冪等性
func TestMarkReadByIdempotent(t *testing.T) {
	now := time.Now()
	msg := &Message{ID: "msg-1", SenderID: "user-a", Type: MessageTypeText, Content: "hi"}

	assert.True(t, msg.MarkReadBy("user-b", now))
	assert.False(t, msg.MarkReadBy("user-b", now.Add(time.Minute)))
	assert.Len(t, msg.ReadBy, 1)
	assert.True(t, msg.IsReadBy("user-b"))
}

// 測試 content 與 media 的類型約束
func TestMessageValidate(t *testing.T) {
	text := &Message{Type: MessageTypeText, Content: "hi"}
	assert.True(t, text.Validate())

	emptyText := &Message{Type: MessageTypeText}
	assert.False(t, emptyText.Validate())

	textWithMedia := &Message{Type: MessageTypeText, Content: "hi", Media: &MediaPayload{Type: MessageTypeImage}}
	assert.False(t, textWithMedia.Validate())

	image := &Message{Type: MessageTypeImage, Media: &MediaPayload{Type: MessageTypeImage, URL: "/media/x.jpg"}}
	assert.True(t, image.Validate())

	imageNoMedia := &Message{Type: MessageTypeImage}
	assert.False(t, imageNoMedia.Validate())

	mismatch := &Message{Type: MessageTypeVideo, Media: &MediaPayload{Type: MessageTypeImage}}
	assert.False(t, mismatch.Validate())
}

// 測試刪除時需要移除的 object key 包含縮圖
func TestMediaPayloadObjectKeys(t *testing.T) {
	video := &MediaPayload{
		Type:  MessageTypeVideo,
		URL:   "media/v.mp4",
		Video: &VideoInfo{Thumbnail: "media/v_thumb.jpg"},
	}
	assert.Equal(t, []string{"media/v.mp4", "media/v_thumb.jpg"}, video.ObjectKeys())

	image := &MediaPayload{Type: MessageTypeImage, URL: "media/x.jpg"}
	assert.Equal(t, []string{"media/x.jpg"}, image.ObjectKeys())
}

// 測試未讀數 key 不存在視為 0
func TestConversationUnreadFor(t *testing.T) {
	conv := NewDM("conv-1", "user-a", "user-b", time.Now())
	assert.Equal(t, 0, conv.UnreadFor("user-a"))

	conv.UnreadCounts["user-b"] = 3
	assert.Equal(t, 3, conv.UnreadFor("user-b"))
	assert.Equal(t, []string{"user-b"}, conv.Recipients("user-a"))
}
