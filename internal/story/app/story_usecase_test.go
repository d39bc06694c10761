package app

import (
	"context"
	"testing"
	"time"

	notifdomain "social_story_service/internal/notification/domain"
	"social_story_service/internal/story/domain"
	"social_story_service/internal/story/repository"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.SetNewNop()
}

// fixClock 固定 usecase 的時間來源
func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	old := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = old })
}

// 測試 CreateStory 的 content/media 擇一驗證
func TestStoryUseCase_CreateStory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	mockRepo := new(MockStoryRepository)
	mockRepo.On("Create", ctx, mock.Anything).Return(nil)

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)

	// 兩者皆無
	_, err := uc.CreateStory(ctx, domain.CreateStoryReq{AuthorID: "author-1"})
	assert.True(t, errprocess.IsKind(err, errprocess.KindValidation))

	// 兩者皆有
	_, err = uc.CreateStory(ctx, domain.CreateStoryReq{
		AuthorID: "author-1",
		Content:  "hi",
		Media:    &domain.StoryMedia{URL: "/media/x.jpg", Type: "image"},
	})
	assert.True(t, errprocess.IsKind(err, errprocess.KindValidation))

	// 合法建立
	story, err := uc.CreateStory(ctx, domain.CreateStoryReq{AuthorID: "author-1", Content: "hi"})
	assert.NoError(t, err)
	assert.Equal(t, now.Add(domain.StoryTTL), story.ExpiresAt)
	assert.True(t, story.ProgressBar.IsActive)
	mockRepo.AssertExpectations(t)
}

// 測試 ViewStory 登記觀看者並回傳前後則導覽
func TestStoryUseCase_ViewStory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	authorID := uuid.New().String()
	viewerID := uuid.New().String()

	prev := domain.NewStory("story-1", authorID, "a", nil, now.Add(-2*time.Hour))
	cur := domain.NewStory("story-2", authorID, "b", nil, now.Add(-time.Hour))
	next := domain.NewStory("story-3", authorID, "c", nil, now.Add(-time.Minute))

	mockRepo := new(MockStoryRepository)
	mockFollows := new(MockFollowChecker)

	mockRepo.On("FindByID", ctx, "story-2").Return(cur, nil)
	mockFollows.On("IsFollowing", ctx, viewerID, authorID).Return(true, nil)
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(nil)
	mockRepo.On("FindActiveByAuthor", ctx, authorID, mock.Anything).
		Return([]domain.Story{*prev, *cur, *next}, nil)

	uc := NewStoryUseCase(mockRepo, mockFollows, nil, nil)
	res, err := uc.ViewStory(ctx, viewerID, "story-2")

	assert.NoError(t, err)
	assert.True(t, res.Story.IsViewedBy(viewerID))
	assert.Equal(t, 1, res.Navigation.CurrentIndex)
	assert.Equal(t, 3, res.Navigation.TotalStories)
	assert.Equal(t, "story-1", res.Navigation.PreviousStoryID)
	assert.Equal(t, "story-3", res.Navigation.NextStoryID)
	mockRepo.AssertExpectations(t)
	mockFollows.AssertExpectations(t)
}

// 測試無追蹤關係時回傳 Forbidden
func TestStoryUseCase_ViewStoryForbidden(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	story := domain.NewStory("story-1", "author-1", "a", nil, now)

	mockRepo := new(MockStoryRepository)
	mockFollows := new(MockFollowChecker)
	mockRepo.On("FindByID", ctx, "story-1").Return(story, nil)
	mockFollows.On("IsFollowing", ctx, "stranger", "author-1").Return(false, nil)

	uc := NewStoryUseCase(mockRepo, mockFollows, nil, nil)
	_, err := uc.ViewStory(ctx, "stranger", "story-1")

	assert.True(t, errprocess.IsKind(err, errprocess.KindForbidden))
}

// 測試進度滿 100 時回傳下一則動態 ID
func TestStoryUseCase_UpdateProgressNextStory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	authorID := uuid.New().String()
	cur := domain.NewStory("story-1", authorID, "a", nil, now.Add(-time.Hour))
	next := domain.NewStory("story-2", authorID, "b", nil, now.Add(-time.Minute))

	mockRepo := new(MockStoryRepository)
	mockRepo.On("FindByID", ctx, "story-1").Return(cur, nil)
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(nil)
	mockRepo.On("FindNextActive", ctx, authorID, cur.CreatedAt, mock.Anything).Return(next, nil)

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)
	res, err := uc.UpdateProgress(ctx, authorID, "story-1", 100)

	assert.NoError(t, err)
	assert.Equal(t, "story-2", res.NextStoryID)
	mockRepo.AssertExpectations(t)
}

// 測試沒有後續動態時 NextStoryID 為空
func TestStoryUseCase_UpdateProgressNoNext(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	authorID := uuid.New().String()
	cur := domain.NewStory("story-1", authorID, "a", nil, now.Add(-time.Hour))

	mockRepo := new(MockStoryRepository)
	mockRepo.On("FindByID", ctx, "story-1").Return(cur, nil)
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(nil)
	mockRepo.On("FindNextActive", ctx, authorID, cur.CreatedAt, mock.Anything).Return(nil, nil)

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)
	res, err := uc.UpdateProgress(ctx, authorID, "story-1", 100)

	assert.NoError(t, err)
	assert.Empty(t, res.NextStoryID)
}

// 測試 ToggleStar 新增時發出通知、移除時不發
func TestStoryUseCase_ToggleStarNotify(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	authorID := uuid.New().String()
	callerID := uuid.New().String()
	story := domain.NewStory("story-1", authorID, "a", nil, now.Add(-time.Hour))

	mockRepo := new(MockStoryRepository)
	mockFollows := new(MockFollowChecker)
	mockNotifier := new(MockEventPublisher)

	mockRepo.On("FindByID", ctx, "story-1").Return(story, nil)
	mockFollows.On("IsFollowing", ctx, callerID, authorID).Return(true, nil)
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(nil)
	mockNotifier.On("Publish", ctx, mock.MatchedBy(func(e notifdomain.Event) bool {
		return e.Type == notifdomain.EventStoryStar && e.RecipientID == authorID && e.SenderID == callerID
	})).Return(nil).Once()

	uc := NewStoryUseCase(mockRepo, mockFollows, mockNotifier, nil)

	res, err := uc.ToggleStar(ctx, callerID, "story-1")
	assert.NoError(t, err)
	assert.True(t, res.Starred)
	assert.Equal(t, 1, res.StarCount)

	// 第二次切換為移除，不應再發通知
	res, err = uc.ToggleStar(ctx, callerID, "story-1")
	assert.NoError(t, err)
	assert.False(t, res.Starred)
	assert.Equal(t, 0, res.StarCount)

	mockNotifier.AssertExpectations(t)
}

// 測試過期的動態不能按星
func TestStoryUseCase_ToggleStarExpired(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, created.Add(domain.StoryTTL+time.Minute))

	story := domain.NewStory("story-1", "author-1", "a", nil, created)

	mockRepo := new(MockStoryRepository)
	mockRepo.On("FindByID", ctx, "story-1").Return(story, nil)

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)
	_, err := uc.ToggleStar(ctx, "author-1", "story-1")

	assert.True(t, errprocess.IsKind(err, errprocess.KindValidation))
}

// 測試樂觀鎖衝突時重讀再試
func TestStoryUseCase_MutateRetryOnConflict(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fixClock(t, now)

	authorID := uuid.New().String()
	story := domain.NewStory("story-1", authorID, "a", nil, now.Add(-time.Hour))

	mockRepo := new(MockStoryRepository)
	mockRepo.On("FindByID", ctx, "story-1").Return(story, nil)
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(repository.ErrVersionConflict).Once()
	mockRepo.On("UpdateVersioned", ctx, mock.Anything).Return(nil).Once()

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)
	_, err := uc.PauseProgress(ctx, authorID, "story-1")

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

// 測試刪除非本人動態回傳 NotFound
func TestStoryUseCase_DeleteStory(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockStoryRepository)
	mockRepo.On("Delete", ctx, "story-1", "author-1").Return(true, nil)
	mockRepo.On("Delete", ctx, "story-1", "stranger").Return(false, nil)

	uc := NewStoryUseCase(mockRepo, nil, nil, nil)

	assert.NoError(t, uc.DeleteStory(ctx, "author-1", "story-1"))
	err := uc.DeleteStory(ctx, "stranger", "story-1")
	assert.True(t, errprocess.IsKind(err, errprocess.KindNotFound))
}
