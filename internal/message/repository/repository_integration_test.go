package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"social_story_service/internal/message/domain"
	"social_story_service/pkg/database"
	"social_story_service/pkg/logger"
	testtool "social_story_service/pkg/test_tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
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
	}, "test_message_db")
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}

	code := m.Run()

	_ = mongoDB.Close(ctx)
	_ = mongoContainer.Terminate(ctx)
	os.Exit(code)
}

// 並發建立同一對用戶的 DM，唯一索引保證最後只有一筆
func TestFindOrCreateDMConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoConversationRepository(mongoDB.Database)
	require.NoError(t, repo.EnsureIndexes(ctx))

	const workers = 8
	ids := make([]string, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// 一半用相反的參數順序呼叫
			a, b := "alice", "bob"
			if i%2 == 1 {
				a, b = b, a
			}
			conv, err := repo.FindOrCreateDM(ctx, a, b)
			if assert.NoError(t, err) {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Equal(t, ids[0], ids[i])
	}

	count, err := mongoDB.Database.Collection("conversations").CountDocuments(ctx, bson.M{"dm_key": domain.DMKey("alice", "bob")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestUnreadIncAndReset(t *testing.T) {
	ctx := context.Background()
	repo := NewMongoConversationRepository(mongoDB.Database)
	require.NoError(t, repo.EnsureIndexes(ctx))

	conv, err := repo.FindOrCreateDM(ctx, "carol", "dave")
	require.NoError(t, err)

	require.NoError(t, repo.IncUnread(ctx, conv.ID, []string{"dave"}))
	require.NoError(t, repo.IncUnread(ctx, conv.ID, []string{"dave"}))

	got, err := repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UnreadFor("dave"))
	assert.Equal(t, 0, got.UnreadFor("carol"))

	require.NoError(t, repo.ResetUnread(ctx, conv.ID, "dave"))
	// 沒有未讀 key 的用戶歸零是 no-op
	require.NoError(t, repo.ResetUnread(ctx, conv.ID, "carol"))

	got, err = repo.FindByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.UnreadFor("dave"))
}

func TestMessageListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	convRepo := NewMongoConversationRepository(mongoDB.Database)
	msgRepo := NewMongoMessageRepository(mongoDB.Database)
	require.NoError(t, msgRepo.EnsureIndexes(ctx))

	conv, err := convRepo.FindOrCreateDM(ctx, "erin", "frank")
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 3; i++ {
		msg := &domain.Message{
			ID:             fmt.Sprintf("msg-%d", i),
			ConversationID: conv.ID,
			SenderID:       "erin",
			Type:           domain.MessageTypeText,
			Content:        fmt.Sprintf("hello %d", i),
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, msgRepo.Insert(ctx, msg))
	}

	// 刪除的訊息不出現在列表
	require.NoError(t, msgRepo.SoftDelete(ctx, "msg-1"))

	msgs, err := msgRepo.FindByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	// 建立時間降冪
	assert.Equal(t, "msg-2", msgs[0].ID)
	assert.Equal(t, "msg-0", msgs[1].ID)

	// MarkRead 幂等
	readAt := base.Add(time.Minute)
	require.NoError(t, msgRepo.MarkRead(ctx, "msg-2", "frank", readAt))
	require.NoError(t, msgRepo.MarkRead(ctx, "msg-2", "frank", readAt))

	msg, err := msgRepo.FindByID(ctx, "msg-2")
	require.NoError(t, err)
	assert.True(t, msg.IsReadBy("frank"))
	assert.Len(t, msg.ReadBy, 1)

	// HardDelete 實體移除，FindByID 撈不到
	require.NoError(t, msgRepo.HardDelete(ctx, "msg-2"))
	msg, err = msgRepo.FindByID(ctx, "msg-2")
	require.NoError(t, err)
	assert.Nil(t, msg)
}
