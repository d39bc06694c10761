package domain

// CreateStoryReq usecase create story request
type CreateStoryReq struct {
	AuthorID string      `json:"-"`
	Content  string      `json:"content"`
	Media    *StoryMedia `json:"media"`
}

// StoryNavigation 動態輪播（story reel）的導覽資訊，
// 以 createdAt 升冪為準的 0-based index
type StoryNavigation struct {
	CurrentIndex    int    `json:"current_index"`
	TotalStories    int    `json:"total_stories"`
	PreviousStoryID string `json:"previous_story,omitempty"`
	NextStoryID     string `json:"next_story,omitempty"`
}

// ViewStoryRes usecase view story response
type ViewStoryRes struct {
	Story           *Story          `json:"story"`
	CurrentProgress int             `json:"current_progress"`
	Navigation      StoryNavigation `json:"navigation"`
}

// StoryWithProgress 附上呼叫者視角進度的動態
type StoryWithProgress struct {
	Story    *Story `json:"story"`
	Index    int    `json:"index"`
	Progress int    `json:"progress"`
	IsViewed bool   `json:"is_viewed"`
}

// AuthorStories getStories 依作者分組的結果
type AuthorStories struct {
	AuthorID     string              `json:"author_id"`
	Stories      []StoryWithProgress `json:"stories"`
	TotalStories int                 `json:"total_stories"`
}

// UpdateProgressRes usecase update progress response，
// 進度滿 100 且存在後一則未過期動態時回傳其 ID
type UpdateProgressRes struct {
	CurrentProgress int    `json:"current_progress"`
	NextStoryID     string `json:"next_story_id,omitempty"`
}

// ToggleStarRes usecase toggle star response
type ToggleStarRes struct {
	Starred   bool `json:"starred"`
	StarCount int  `json:"star_count"`
}
