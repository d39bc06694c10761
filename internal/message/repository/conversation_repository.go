package repository

import (
	"context"
	"fmt"
	"time"

	"social_story_service/internal/message/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository definition conversation persistence
type ConversationRepository interface {
	EnsureIndexes(ctx context.Context) error
	// FindOrCreateDM 取得或建立 1對1 對話，靠 dm_key 唯一索引
	// 保證並發下同一對用戶只會有一筆
	FindOrCreateDM(ctx context.Context, a, b string) (*domain.Conversation, error)
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	// FindByParticipant 取用戶參與的對話，更新時間降冪
	FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	// SetLastMessage 更新 last_message_id 與 updated_at
	SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error
	// IncUnread 以 $inc 對收件者未讀數原子遞增，key 不存在時自動從 1 開始
	IncUnread(ctx context.Context, conversationID string, userIDs []string) error
	// ResetUnread 只在 key 存在時歸零，不存在為 no-op
	ResetUnread(ctx context.Context, conversationID, userID string) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

// EnsureIndexes dm_key 唯一索引是 FindOrCreateDM 防重複的前提
func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "dm_key", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"dm_key": bson.M{"$type": "string"}}),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}},
		},
	})
	return err
}

func (r *conversationRepository) FindOrCreateDM(ctx context.Context, a, b string) (*domain.Conversation, error) {
	key := domain.DMKey(a, b)

	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"dm_key": key}).Decode(&conv)
	if err == nil {
		return &conv, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	created := domain.NewDM(uuid.New().String(), a, b, time.Now())
	_, err = r.coll.InsertOne(ctx, created)
	if err == nil {
		return created, nil
	}

	// 並發建立撞到唯一索引時，改讀對方剛寫入的那筆
	if mongo.IsDuplicateKeyError(err) {
		if ferr := r.coll.FindOne(ctx, bson.M{"dm_key": key}).Decode(&conv); ferr != nil {
			return nil, fmt.Errorf("refetch after duplicate dm_key[%s]: %w", key, ferr)
		}
		return &conv, nil
	}
	return nil, err
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []domain.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"last_message_id": messageID, "updated_at": at}},
	)
	return err
}

func (r *conversationRepository) IncUnread(ctx context.Context, conversationID string, userIDs []string) error {
	inc := bson.M{}
	for _, id := range userIDs {
		inc["unread_counts."+id] = 1
	}
	if len(inc) == 0 {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$inc": inc})
	return err
}

func (r *conversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	field := "unread_counts." + userID
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": conversationID, field: bson.M{"$exists": true}},
		bson.M{"$set": bson.M{field: 0}},
	)
	return err
}
