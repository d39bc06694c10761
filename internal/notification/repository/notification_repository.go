package repository

import (
	"context"
	"time"

	"social_story_service/internal/notification/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// notificationListLimit 列表查詢一次最多回傳的筆數
const notificationListLimit = 50

// NotificationRepository definition notification persistence
type NotificationRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, notification *domain.Notification) error
	// FindByRecipient 取用戶通知，createdAt 降冪，最多 50 筆
	FindByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
	// MarkRead 標記單筆已讀，重複標記為 no-op
	MarkRead(ctx context.Context, notificationID, recipientID string) error
	// MarkAllRead 標記用戶全部通知已讀
	MarkAllRead(ctx context.Context, recipientID string) error
}

type notificationRepository struct {
	coll *mongo.Collection
}

// NewMongoNotificationRepository create a NotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		coll: db.Collection("notifications"),
	}
}

// EnsureIndexes 列表與未讀數查詢走 (recipient_id, created_at) 與 (recipient_id, read)
func (r *notificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "read", Value: 1}},
		},
	})
	return err
}

func (r *notificationRepository) Insert(ctx context.Context, notification *domain.Notification) error {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	_, err := r.coll.InsertOne(ctx, notification)
	return err
}

func (r *notificationRepository) FindByRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"recipient_id": recipientID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(notificationListLimit),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []domain.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"recipient_id": recipientID, "read": false})
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID, recipientID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": notificationID, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"recipient_id": recipientID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}
