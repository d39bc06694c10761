package repository

import (
	"context"
	"errors"
	"time"

	"social_story_service/internal/story/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrVersionConflict 條件更新沒有命中任何文件，
// 表示讀取後已有其他請求改寫過這筆動態
var ErrVersionConflict = errors.New("story version conflict")

// StoryRepository definition story persistence
type StoryRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, story *domain.Story) error
	FindByID(ctx context.Context, storyID string) (*domain.Story, error)
	// FindActiveByAuthor 取作者所有未過期動態，createdAt 升冪（reel 順序）
	FindActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]domain.Story, error)
	// FindActiveByAuthors 取多位作者的未過期動態，createdAt 降冪（feed 用）
	FindActiveByAuthors(ctx context.Context, authorIDs []string, now time.Time) ([]domain.Story, error)
	// FindNextActive 取同作者在 after 之後建立、尚未過期的下一則動態
	FindNextActive(ctx context.Context, authorID string, after, now time.Time) (*domain.Story, error)
	// UpdateVersioned 以 version 做樂觀鎖條件更新，衝突回傳 ErrVersionConflict
	UpdateVersioned(ctx context.Context, story *domain.Story) error
	Delete(ctx context.Context, storyID, authorID string) (bool, error)
}

type storyRepository struct {
	coll *mongo.Collection
}

// NewMongoStoryRepository create a StoryRepository
func NewMongoStoryRepository(db *mongo.Database) StoryRepository {
	return &storyRepository{
		coll: db.Collection("stories"),
	}
}

// EnsureIndexes reel 查詢走 (author_id, created_at)，過期過濾走 expires_at
func (r *storyRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "expires_at", Value: 1}},
		},
	})
	return err
}

// Create create story
func (r *storyRepository) Create(ctx context.Context, story *domain.Story) error {
	_, err := r.coll.InsertOne(ctx, story)
	return err
}

// FindByID 直接以 id 查詢，過期的動態也查得到（資料不清除，只在列表排除）
func (r *storyRepository) FindByID(ctx context.Context, storyID string) (*domain.Story, error) {
	var story domain.Story
	err := r.coll.FindOne(ctx, bson.M{"_id": storyID}).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &story, nil
}

func (r *storyRepository) FindActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]domain.Story, error) {
	filter := bson.M{
		"author_id":  authorID,
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var stories []domain.Story
	if err := cur.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) FindActiveByAuthors(ctx context.Context, authorIDs []string, now time.Time) ([]domain.Story, error) {
	filter := bson.M{
		"author_id":  bson.M{"$in": authorIDs},
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var stories []domain.Story
	if err := cur.All(ctx, &stories); err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) FindNextActive(ctx context.Context, authorID string, after, now time.Time) (*domain.Story, error) {
	filter := bson.M{
		"author_id":  authorID,
		"created_at": bson.M{"$gt": after},
		"expires_at": bson.M{"$gt": now},
	}
	opts := options.FindOne().SetSort(bson.M{"created_at": 1})
	var story domain.Story
	err := r.coll.FindOne(ctx, filter, opts).Decode(&story)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &story, nil
}

// UpdateVersioned 只在 version 未變時寫入，寫入同時遞增 version
func (r *storyRepository) UpdateVersioned(ctx context.Context, story *domain.Story) error {
	filter := bson.M{"_id": story.ID, "version": story.Version}
	update := bson.M{"$set": bson.M{
		"content":      story.Content,
		"media":        story.Media,
		"viewers":      story.Viewers,
		"stars":        story.Stars,
		"star_count":   story.StarCount,
		"progress_bar": story.ProgressBar,
	}, "$inc": bson.M{"version": 1}}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	story.Version++
	return nil
}

// Delete 只有作者本人能刪除
func (r *storyRepository) Delete(ctx context.Context, storyID, authorID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": storyID, "author_id": authorID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
