package domain

import (
	"sort"
	"strings"
	"time"
)

// Conversation 對話；1對1 對話以 DMKey 的唯一索引防止並發重複建立
type Conversation struct {
	ID           string   `bson:"_id" json:"id"`
	Participants []string `bson:"participants" json:"participants"`
	// DMKey 正規化的成對鍵（排序後以 | 連接），只有 1對1 對話會有
	DMKey   string `bson:"dm_key,omitempty" json:"-"`
	IsGroup bool   `bson:"is_group" json:"is_group"`
	Name    string `bson:"name,omitempty" json:"name,omitempty"`
	// LastMessageID 弱引用，只存 id 不內嵌訊息
	LastMessageID string `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	// UnreadCounts 每位參與者的未讀數，key 不存在視為 0
	UnreadCounts map[string]int `bson:"unread_counts" json:"unread_counts"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

// DMKey 1對1 對話的正規化成對鍵，與參數順序無關
func DMKey(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return strings.Join(pair, "|")
}

// NewDM 建立 1對1 對話
func NewDM(id, a, b string, now time.Time) *Conversation {
	return &Conversation{
		ID:           id,
		Participants: []string{a, b},
		DMKey:        DMKey(a, b),
		UnreadCounts: map[string]int{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// HasParticipant check user in the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Recipients 除了 sender 以外的參與者
func (c *Conversation) Recipients(senderID string) []string {
	var out []string
	for _, p := range c.Participants {
		if p != senderID {
			out = append(out, p)
		}
	}
	return out
}

// UnreadFor 取用戶未讀數，沒有記錄回傳 0
func (c *Conversation) UnreadFor(userID string) int {
	return c.UnreadCounts[userID]
}
