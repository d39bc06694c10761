package domain

import "time"

// MessageType definition message type
type MessageType string

const (
	// MessageTypeText plain text message
	MessageTypeText MessageType = "text"
	// MessageTypeStoryReply reply to a story
	MessageTypeStoryReply MessageType = "story_reply"
	// MessageTypeImage image message
	MessageTypeImage MessageType = "image"
	// MessageTypeVideo video message
	MessageTypeVideo MessageType = "video"
	// MessageTypeVoice voice message
	MessageTypeVoice MessageType = "voice"
	// MessageTypeDocument document message
	MessageTypeDocument MessageType = "document"
)

// IsMediaType 是否為需要 media payload 的類型
func (t MessageType) IsMediaType() bool {
	switch t {
	case MessageTypeImage, MessageTypeVideo, MessageTypeVoice, MessageTypeDocument:
		return true
	}
	return false
}

// ImageInfo 圖片訊息的媒體資訊
type ImageInfo struct {
	Width  int `bson:"width" json:"width"`
	Height int `bson:"height" json:"height"`
}

// VideoInfo 影片訊息的媒體資訊，轉檔後以壓縮檔重新 probe 的結果為準
type VideoInfo struct {
	DurationSec float64 `bson:"duration_sec" json:"duration_sec"`
	Width       int     `bson:"width" json:"width"`
	Height      int     `bson:"height" json:"height"`
	Thumbnail   string  `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
}

// VoiceInfo 語音訊息的媒體資訊
type VoiceInfo struct {
	DurationSec float64 `bson:"duration_sec" json:"duration_sec"`
}

// DocumentInfo 文件訊息的媒體資訊；
// PageCount/Preview 解析失敗時為零值（degrade，不中斷）
type DocumentInfo struct {
	PageCount int    `bson:"page_count,omitempty" json:"page_count,omitempty"`
	Preview   string `bson:"preview,omitempty" json:"preview,omitempty"`
}

// MediaPayload 媒體訊息的 payload，依 Type 只會有對應的一個 Info
type MediaPayload struct {
	Type        MessageType   `bson:"type" json:"type"`
	URL         string        `bson:"url" json:"url"`
	FileName    string        `bson:"file_name" json:"file_name"`
	ContentType string        `bson:"content_type" json:"content_type"`
	Size        int64         `bson:"size" json:"size"`
	Image       *ImageInfo    `bson:"image,omitempty" json:"image,omitempty"`
	Video       *VideoInfo    `bson:"video,omitempty" json:"video,omitempty"`
	Voice       *VoiceInfo    `bson:"voice,omitempty" json:"voice,omitempty"`
	Document    *DocumentInfo `bson:"document,omitempty" json:"document,omitempty"`
}

// ObjectKeys 此 payload 在物件儲存上的所有 object key（含縮圖），
// 刪除訊息時逐一移除
func (p *MediaPayload) ObjectKeys() []string {
	keys := []string{p.URL}
	if p.Video != nil && p.Video.Thumbnail != "" {
		keys = append(keys, p.Video.Thumbnail)
	}
	return keys
}

// StorySnapshot story_reply 當下的動態快照，動態過期後回覆仍可讀
type StorySnapshot struct {
	StoryID  string `bson:"story_id" json:"story_id"`
	Content  string `bson:"content,omitempty" json:"content,omitempty"`
	MediaURL string `bson:"media_url,omitempty" json:"media_url,omitempty"`
}

// ReadReceipt 已讀記錄，每位用戶至多一筆
type ReadReceipt struct {
	UserID string    `bson:"user_id" json:"user_id"`
	ReadAt time.Time `bson:"read_at" json:"read_at"`
}

// Message 一則訊息；IsDeleted 為軟刪除旗標，列表查詢會排除
type Message struct {
	ID             string         `bson:"_id" json:"id"`
	ConversationID string         `bson:"conversation_id" json:"conversation_id"`
	SenderID       string         `bson:"sender_id" json:"sender_id"`
	Type           MessageType    `bson:"type" json:"type"`
	Content        string         `bson:"content,omitempty" json:"content,omitempty"`
	Media          *MediaPayload  `bson:"media,omitempty" json:"media,omitempty"`
	Story          *StorySnapshot `bson:"story,omitempty" json:"story,omitempty"`
	ReadBy         []ReadReceipt  `bson:"read_by" json:"read_by"`
	IsDeleted      bool           `bson:"is_deleted" json:"-"`
	CreatedAt      time.Time      `bson:"created_at" json:"created_at"`
}

// IsReadBy check user read the message
func (m *Message) IsReadBy(userID string) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// MarkReadBy 登記已讀，重複標記為 no-op，回傳是否有新增
func (m *Message) MarkReadBy(userID string, now time.Time) bool {
	if m.IsReadBy(userID) {
		return false
	}
	m.ReadBy = append(m.ReadBy, ReadReceipt{UserID: userID, ReadAt: now})
	return true
}

// Validate content 只在 text/story_reply 必填，media 只在媒體類型必填
func (m *Message) Validate() bool {
	switch m.Type {
	case MessageTypeText, MessageTypeStoryReply:
		return m.Content != "" && m.Media == nil
	case MessageTypeImage, MessageTypeVideo, MessageTypeVoice, MessageTypeDocument:
		return m.Media != nil && m.Media.Type == m.Type
	}
	return false
}
