package domain

import "time"

const (
	// StoryTTL 限時動態的存活時間，超過即視為過期
	StoryTTL = 24 * time.Hour

	// StoryDisplayDuration 單則動態的固定播放長度，
	// progress 百分比以此換算（見 Progress）
	StoryDisplayDuration = 15 * time.Second
)

// StoryMedia 動態附帶的媒體
type StoryMedia struct {
	URL       string `bson:"url" json:"url"`
	Type      string `bson:"type" json:"type"` // "image" 或 "video"
	Thumbnail string `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
}

// StoryViewer 觀看記錄，每位用戶至多一筆
type StoryViewer struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	Progress int       `bson:"progress" json:"progress"` // 0-100
	ViewedAt time.Time `bson:"viewed_at" json:"viewed_at"`
}

// StoryStar 按星記錄，每位用戶至多一筆
type StoryStar struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	StarredAt time.Time `bson:"starred_at" json:"starred_at"`
}

// ProgressBar 播放進度狀態
type ProgressBar struct {
	IsActive  bool      `bson:"is_active" json:"is_active"`
	StartTime time.Time `bson:"start_time" json:"start_time"`
	PausedAt  int64     `bson:"paused_at" json:"paused_at"` // 已播放毫秒數
}

// Story 限時動態
type Story struct {
	ID          string        `bson:"_id" json:"id"`
	AuthorID    string        `bson:"author_id" json:"author_id"`
	Content     string        `bson:"content,omitempty" json:"content,omitempty"`
	Media       *StoryMedia   `bson:"media,omitempty" json:"media,omitempty"`
	Viewers     []StoryViewer `bson:"viewers" json:"viewers"`
	Stars       []StoryStar   `bson:"stars" json:"stars"`
	StarCount   int           `bson:"star_count" json:"star_count"`
	ProgressBar ProgressBar   `bson:"progress_bar" json:"progress_bar"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	ExpiresAt   time.Time     `bson:"expires_at" json:"expires_at"`
	// Version 供 repository 做樂觀鎖條件更新，防止並發寫入互相覆蓋
	Version int64 `bson:"version" json:"-"`
}

// NewStory 建立動態，content 與 media 必須恰好擇一
func NewStory(id, authorID, content string, media *StoryMedia, now time.Time) *Story {
	return &Story{
		ID:       id,
		AuthorID: authorID,
		Content:  content,
		Media:    media,
		Viewers:  []StoryViewer{},
		Stars:    []StoryStar{},
		ProgressBar: ProgressBar{
			IsActive:  true,
			StartTime: now,
			PausedAt:  0,
		},
		CreatedAt: now,
		ExpiresAt: now.Add(StoryTTL),
	}
}

// IsExpired 過期為惰性判定，與播放狀態無關
func (s *Story) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// elapsedMillis 已播放毫秒數：播放中 = pausedAt + (now - startTime)，暫停中 = pausedAt
func (s *Story) elapsedMillis(now time.Time) int64 {
	if s.ProgressBar.IsActive {
		return s.ProgressBar.PausedAt + now.Sub(s.ProgressBar.StartTime).Milliseconds()
	}
	return s.ProgressBar.PausedAt
}

// Progress 以固定播放長度換算的百分比，clamp 到 [0,100]
func (s *Story) Progress(now time.Time) int {
	p := s.elapsedMillis(now) * 100 / StoryDisplayDuration.Milliseconds()
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return int(p)
}

// Pause 暫停播放，已暫停時為 no-op；過期的動態不再變更進度
func (s *Story) Pause(now time.Time) {
	if s.IsExpired(now) || !s.ProgressBar.IsActive {
		return
	}
	s.ProgressBar.PausedAt = s.elapsedMillis(now)
	s.ProgressBar.IsActive = false
}

// Resume 恢復播放，播放中時為 no-op；過期的動態不再變更進度
func (s *Story) Resume(now time.Time) {
	if s.IsExpired(now) || s.ProgressBar.IsActive {
		return
	}
	s.ProgressBar.StartTime = now
	s.ProgressBar.IsActive = true
}

// IsViewedBy 只看是否有觀看記錄，不論進度
func (s *Story) IsViewedBy(userID string) bool {
	for _, v := range s.Viewers {
		if v.UserID == userID {
			return true
		}
	}
	return false
}

// ViewerProgress 取得用戶的觀看進度，沒看過回傳 0
func (s *Story) ViewerProgress(userID string) int {
	for _, v := range s.Viewers {
		if v.UserID == userID {
			return v.Progress
		}
	}
	return 0
}

// SetViewerProgress upsert 用戶觀看記錄，同一用戶不會出現第二筆
func (s *Story) SetViewerProgress(userID string, progress int, now time.Time) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	for i, v := range s.Viewers {
		if v.UserID == userID {
			s.Viewers[i].Progress = progress
			return
		}
	}
	s.Viewers = append(s.Viewers, StoryViewer{
		UserID:   userID,
		Progress: progress,
		ViewedAt: now,
	})
}

// ToggleStar 切換按星狀態，回傳是否為新增（通知只在新增時發出），
// 並保持 StarCount 與 Stars 同步
func (s *Story) ToggleStar(userID string, now time.Time) bool {
	for i, star := range s.Stars {
		if star.UserID == userID {
			s.Stars = append(s.Stars[:i], s.Stars[i+1:]...)
			s.StarCount = len(s.Stars)
			return false
		}
	}
	s.Stars = append(s.Stars, StoryStar{UserID: userID, StarredAt: now})
	s.StarCount = len(s.Stars)
	return true
}

// IsStarredBy check user starred the story
func (s *Story) IsStarredBy(userID string) bool {
	for _, star := range s.Stars {
		if star.UserID == userID {
			return true
		}
	}
	return false
}
