package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"social_story_service/internal/story/domain"
	"social_story_service/pkg/database"
	"social_story_service/pkg/logger"
	testtool "social_story_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// **測試用的容器**
var mongoDB *database.MongoDB

// **TestMain 初始化測試環境**
func TestMain(m *testing.M) {
	ctx := context.Background()
	logger.SetNewNop()

	// **啟動 MongoDB**
	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("❌ Failed to start MongoDB container: %v", err)
	}
	fmt.Printf("✅ MongoDB running at %s:%s\n", mongoHost, mongoPort)

	mongoDB, err = database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 5,
	}, "test_story_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	code := m.Run()

	_ = mongoDB.Close(ctx)
	_ = mongoContainer.Terminate(ctx)
	os.Exit(code)
}

// 兩個請求拿同一版本寫回，後寫的要吃版本衝突
func TestUpdateVersionedConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoStoryRepository(mongoDB.Database)
	require.NoError(t, repo.EnsureIndexes(ctx))

	now := time.Now().UTC().Truncate(time.Millisecond)
	story := domain.NewStory("story-cas", "author-1", "hello", nil, now)
	require.NoError(t, repo.Create(ctx, story))

	first, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)

	first.StarCount = 1
	require.NoError(t, repo.UpdateVersioned(ctx, first))
	assert.EqualValues(t, 1, first.Version)

	second.StarCount = 99
	assert.ErrorIs(t, repo.UpdateVersioned(ctx, second), ErrVersionConflict)

	got, err := repo.FindByID(ctx, story.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.StarCount)
	assert.EqualValues(t, 1, got.Version)
}

func TestActiveQueriesSkipExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoStoryRepository(mongoDB.Database)

	now := time.Now().UTC().Truncate(time.Millisecond)
	fresh := domain.NewStory("story-fresh", "author-2", "fresh", nil, now.Add(-time.Hour))
	stale := domain.NewStory("story-stale", "author-2", "stale", nil, now.Add(-25*time.Hour))
	require.NoError(t, repo.Create(ctx, fresh))
	require.NoError(t, repo.Create(ctx, stale))

	// 過期資料不清除，仍可用 id 查到
	got, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.True(t, got.IsExpired(now))

	active, err := repo.FindActiveByAuthor(ctx, "author-2", now)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)

	next, err := repo.FindNextActive(ctx, "author-2", now.Add(-2*time.Hour), now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, fresh.ID, next.ID)

	// fresh 之後沒有更新的動態
	next, err = repo.FindNextActive(ctx, "author-2", fresh.CreatedAt, now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestDeleteOnlyByAuthor(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoStoryRepository(mongoDB.Database)

	now := time.Now().UTC()
	story := domain.NewStory("story-del", "author-3", "bye", nil, now)
	require.NoError(t, repo.Create(ctx, story))

	deleted, err := repo.Delete(ctx, story.ID, "someone-else")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = repo.Delete(ctx, story.ID, "author-3")
	require.NoError(t, err)
	assert.True(t, deleted)
}
