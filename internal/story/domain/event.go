package domain

import "time"

// ViewEvent 觀看行為的分析事件，送往 Kafka，僅 best-effort
type ViewEvent struct {
	StoryID  string    `json:"story_id"`
	AuthorID string    `json:"author_id"`
	ViewerID string    `json:"viewer_id"`
	ViewedAt time.Time `json:"viewed_at"`
}
