package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// 測試過期判定只依賴 expiresAt，與播放狀態無關
func TestStory_IsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)

	assert.False(t, story.IsExpired(now))
	assert.False(t, story.IsExpired(now.Add(StoryTTL-time.Second)))
	assert.True(t, story.IsExpired(now.Add(StoryTTL)))
	assert.True(t, story.IsExpired(now.Add(StoryTTL+time.Hour)))

	// 暫停不影響過期判定
	story.Pause(now.Add(time.Second))
	assert.False(t, story.IsExpired(now.Add(time.Minute)))
	assert.True(t, story.IsExpired(now.Add(StoryTTL)))
}

// 測試播放中與暫停中的進度計算
func TestStory_Progress(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)

	// 剛建立進度為 0
	assert.Equal(t, 0, story.Progress(now))

	// 播放到一半
	half := now.Add(StoryDisplayDuration / 2)
	assert.Equal(t, 50, story.Progress(half))

	// 超過播放長度 clamp 在 100
	assert.Equal(t, 100, story.Progress(now.Add(StoryDisplayDuration*2)))
}

// 測試 pause 後馬上 resume 不改變進度
func TestStory_PauseResumeKeepsProgress(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)

	at := now.Add(6 * time.Second)
	before := story.Progress(at)

	story.Pause(at)
	assert.False(t, story.ProgressBar.IsActive)
	// 暫停期間進度凍結
	assert.Equal(t, before, story.Progress(at.Add(time.Hour)))

	story.Resume(at.Add(time.Hour))
	assert.True(t, story.ProgressBar.IsActive)
	assert.Equal(t, before, story.Progress(at.Add(time.Hour)))
}

// 測試 pause/resume 的冪等性
func TestStory_PauseResumeIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)

	at := now.Add(3 * time.Second)
	story.Pause(at)
	paused := story.ProgressBar.PausedAt
	// 重複 pause 不再累計
	story.Pause(at.Add(10 * time.Second))
	assert.Equal(t, paused, story.ProgressBar.PausedAt)

	story.Resume(at.Add(20 * time.Second))
	start := story.ProgressBar.StartTime
	// 重複 resume 不重設起點
	story.Resume(at.Add(30 * time.Second))
	assert.Equal(t, start, story.ProgressBar.StartTime)
}

// 測試過期後進度操作為 no-op
func TestStory_ProgressOpsAfterExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)

	expired := now.Add(StoryTTL + time.Minute)
	story.Pause(expired)
	assert.True(t, story.ProgressBar.IsActive)

	story.Pause(now.Add(time.Second))
	story.Resume(expired)
	assert.False(t, story.ProgressBar.IsActive)
}

// 測試觀看記錄 upsert 不產生重複
func TestStory_SetViewerProgressDedup(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)
	userID := uuid.New().String()

	for i := 0; i <= 100; i += 20 {
		story.SetViewerProgress(userID, i, now)
	}

	assert.Len(t, story.Viewers, 1)
	assert.Equal(t, 100, story.ViewerProgress(userID))
	assert.True(t, story.IsViewedBy(userID))
	assert.False(t, story.IsViewedBy("someone-else"))

	// 超界的進度被 clamp
	story.SetViewerProgress(userID, 150, now)
	assert.Equal(t, 100, story.ViewerProgress(userID))
	story.SetViewerProgress(userID, -1, now)
	assert.Equal(t, 0, story.ViewerProgress(userID))
}

// 測試 toggleStar 為對合運算且 starCount 保持同步
func TestStory_ToggleStarInvolution(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	story := NewStory(uuid.New().String(), "author-1", "hello", nil, now)
	userID := uuid.New().String()

	added := story.ToggleStar(userID, now)
	assert.True(t, added)
	assert.Equal(t, 1, story.StarCount)
	assert.True(t, story.IsStarredBy(userID))

	added = story.ToggleStar(userID, now)
	assert.False(t, added)
	assert.Equal(t, 0, story.StarCount)
	assert.False(t, story.IsStarredBy(userID))

	// 多次切換後不會出現重複記錄
	for i := 0; i < 5; i++ {
		story.ToggleStar(userID, now)
	}
	assert.LessOrEqual(t, len(story.Stars), 1)
	assert.Equal(t, len(story.Stars), story.StarCount)
}
