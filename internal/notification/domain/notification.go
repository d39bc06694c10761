package domain

import "time"

// EventType definition notification event type
type EventType string

const (
	// EventStoryStar someone starred your story
	EventStoryStar EventType = "story_star"
	// EventStoryReply someone replied to your story
	EventStoryReply EventType = "story_reply"
	// EventMessage someone sent you a message
	EventMessage EventType = "message"
)

// QueueName 通知事件使用的佇列名稱
const QueueName = "notification_events"

// Event 由觸發端發布到 RabbitMQ 的通知事件，
// 發布失敗只記錄，不影響觸發它的操作
type Event struct {
	RecipientID string    `json:"recipient_id"`
	SenderID    string    `json:"sender_id"`
	Type        EventType `json:"type"`
	StoryID     string    `json:"story_id,omitempty"`
	MessageID   string    `json:"message_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Notification 落地後的通知記錄
type Notification struct {
	ID          string    `bson:"_id" json:"id"`
	RecipientID string    `bson:"recipient_id" json:"recipient_id"`
	SenderID    string    `bson:"sender_id" json:"sender_id"`
	Type        EventType `bson:"type" json:"type"`
	StoryID     string    `bson:"story_id,omitempty" json:"story_id,omitempty"`
	MessageID   string    `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Read        bool      `bson:"read" json:"read"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}
