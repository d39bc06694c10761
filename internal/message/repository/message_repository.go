package repository

import (
	"context"
	"time"

	"social_story_service/internal/message/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// messageListLimit 列表查詢一次最多回傳的筆數
const messageListLimit = 50

// MessageRepository definition message persistence
type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// FindByConversation 取對話訊息，排除已刪除，createdAt 降冪，最多 50 筆
	FindByConversation(ctx context.Context, conversationID string) ([]domain.Message, error)
	// MarkRead 把已讀記錄加進 read_by，重複標記為 no-op
	MarkRead(ctx context.Context, messageID, userID string, at time.Time) error
	// SoftDelete 設 is_deleted 旗標，資料不移除
	SoftDelete(ctx context.Context, messageID string) error
	// HardDelete 實體移除訊息，供落地後續步驟失敗時的補償使用
	HardDelete(ctx context.Context, messageID string) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// EnsureIndexes 列表查詢走 (conversation_id, created_at)
func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"conversation_id": conversationID, "is_deleted": false},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(messageListLimit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var msgs []domain.Message
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead 以 $ne 過濾避免同一用戶出現第二筆已讀記錄
func (r *messageRepository) MarkRead(ctx context.Context, messageID, userID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID, "read_by.user_id": bson.M{"$ne": userID}},
		bson.M{"$push": bson.M{"read_by": domain.ReadReceipt{UserID: userID, ReadAt: at}}},
	)
	return err
}

func (r *messageRepository) SoftDelete(ctx context.Context, messageID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	return err
}

func (r *messageRepository) HardDelete(ctx context.Context, messageID string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": messageID})
	return err
}
