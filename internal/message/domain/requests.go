package domain

// SendTextReq usecase send text message request
type SendTextReq struct {
	SenderID    string `json:"-"`
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
}

// SendStoryReplyReq usecase reply to story request
type SendStoryReplyReq struct {
	SenderID string `json:"-"`
	StoryID  string `json:"story_id"`
	Content  string `json:"content"`
}

// SendMediaReq usecase send media message request，
// 檔案先經 upload gate 落在本機暫存路徑
type SendMediaReq struct {
	SenderID    string
	RecipientID string
	FilePath    string
	FileName    string
	ContentType string
	Size        int64
}

// ConversationSummary 對話列表的單筆結果，未讀數取呼叫者視角
type ConversationSummary struct {
	Conversation *Conversation `json:"conversation"`
	LastMessage  *Message      `json:"last_message,omitempty"`
	UnreadCount  int           `json:"unread_count"`
}
