package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	notifdomain "social_story_service/internal/notification/domain"
	"social_story_service/internal/story/domain"
	"social_story_service/internal/story/repository"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// 樂觀鎖衝突時的重讀次數上限
const casMaxRetry = 3

// FollowChecker 追蹤關係查詢，由 member service 提供
type FollowChecker interface {
	IsFollowing(ctx context.Context, followerID, authorID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// EventPublisher 通知事件發布端，發布失敗不影響觸發操作
type EventPublisher interface {
	Publish(ctx context.Context, event notifdomain.Event) error
}

// AnalyticsWriter 觀看事件的 Kafka 寫入端
type AnalyticsWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// StoryUseCase 這裡封裝了對外提供的應用服務
type StoryUseCase interface {
	CreateStory(ctx context.Context, req domain.CreateStoryReq) (*domain.Story, error)
	GetStories(ctx context.Context, userID string) ([]domain.AuthorStories, error)
	GetUserStories(ctx context.Context, callerID, authorID string) ([]domain.StoryWithProgress, error)
	ViewStory(ctx context.Context, callerID, storyID string) (*domain.ViewStoryRes, error)
	UpdateProgress(ctx context.Context, callerID, storyID string, progress int) (*domain.UpdateProgressRes, error)
	PauseProgress(ctx context.Context, callerID, storyID string) (int, error)
	ResumeProgress(ctx context.Context, callerID, storyID string) (int, error)
	ToggleStar(ctx context.Context, callerID, storyID string) (*domain.ToggleStarRes, error)
	DeleteStory(ctx context.Context, callerID, storyID string) error
}

type storyUseCase struct {
	storyRepo repository.StoryRepository
	follows   FollowChecker
	notifier  EventPublisher
	analytics AnalyticsWriter
}

// 讓測試可以固定時間
var timeNow = time.Now

// NewStoryUseCase 建立一個新的 StoryUseCase
func NewStoryUseCase(
	storyRepo repository.StoryRepository,
	follows FollowChecker,
	notifier EventPublisher,
	analytics AnalyticsWriter,
) StoryUseCase {
	return &storyUseCase{
		storyRepo: storyRepo,
		follows:   follows,
		notifier:  notifier,
		analytics: analytics,
	}
}

// CreateStory 建立動態，content 與 media 必須恰好擇一
func (uc *storyUseCase) CreateStory(ctx context.Context, req domain.CreateStoryReq) (*domain.Story, error) {
	if (req.Content == "") == (req.Media == nil) {
		return nil, errprocess.New(errprocess.KindValidation, "story requires exactly one of content or media")
	}

	story := domain.NewStory(uuid.New().String(), req.AuthorID, req.Content, req.Media, timeNow())
	if err := uc.storyRepo.Create(ctx, story); err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 建立失敗", story.ID), err)
	}
	return story, nil
}

// GetStories 取呼叫者追蹤對象（含自己）的未過期動態，依作者分組。
// 過期是查詢時過濾，不做清除。
func (uc *storyUseCase) GetStories(ctx context.Context, userID string) ([]domain.AuthorStories, error) {
	followingIDs, err := uc.follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 取得追蹤名單失敗", userID), err)
	}
	authorIDs := append(followingIDs, userID)

	now := timeNow()
	stories, err := uc.storyRepo.FindActiveByAuthors(ctx, authorIDs, now)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, "取得動態列表失敗", err)
	}

	// 依作者分組並附上呼叫者視角的進度
	var (
		order  []string
		groups = map[string]*domain.AuthorStories{}
	)
	for i := range stories {
		story := &stories[i]
		group, ok := groups[story.AuthorID]
		if !ok {
			group = &domain.AuthorStories{AuthorID: story.AuthorID}
			groups[story.AuthorID] = group
			order = append(order, story.AuthorID)
		}
		progress := story.ViewerProgress(userID)
		group.Stories = append(group.Stories, domain.StoryWithProgress{
			Story:    story,
			Index:    len(group.Stories),
			Progress: progress,
			IsViewed: progress == 100,
		})
		group.TotalStories++
	}

	result := make([]domain.AuthorStories, 0, len(order))
	for _, authorID := range order {
		result = append(result, *groups[authorID])
	}
	return result, nil
}

// GetUserStories 取指定作者的未過期動態，需授權
func (uc *storyUseCase) GetUserStories(ctx context.Context, callerID, authorID string) ([]domain.StoryWithProgress, error) {
	if err := uc.authorize(ctx, callerID, authorID); err != nil {
		return nil, err
	}

	stories, err := uc.storyRepo.FindActiveByAuthor(ctx, authorID, timeNow())
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("author[%s] 取得動態失敗", authorID), err)
	}

	result := make([]domain.StoryWithProgress, 0, len(stories))
	for i := range stories {
		story := &stories[i]
		progress := story.ViewerProgress(callerID)
		result = append(result, domain.StoryWithProgress{
			Story:    story,
			Index:    i,
			Progress: progress,
			IsViewed: progress == 100,
		})
	}
	return result, nil
}

// ViewStory 觀看動態：啟動播放、登記觀看者，並回傳 reel 導覽資訊
func (uc *storyUseCase) ViewStory(ctx context.Context, callerID, storyID string) (*domain.ViewStoryRes, error) {
	story, err := uc.mutateStory(ctx, callerID, storyID, func(s *domain.Story, now time.Time) error {
		s.Resume(now)
		if !s.IsViewedBy(callerID) {
			s.SetViewerProgress(callerID, 0, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := timeNow()

	// 同作者未過期動態依 createdAt 升冪，定位前後則
	siblings, err := uc.storyRepo.FindActiveByAuthor(ctx, story.AuthorID, now)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 取得 reel 失敗", storyID), err)
	}
	nav := domain.StoryNavigation{TotalStories: len(siblings), CurrentIndex: -1}
	for i := range siblings {
		if siblings[i].ID == story.ID {
			nav.CurrentIndex = i
			if i > 0 {
				nav.PreviousStoryID = siblings[i-1].ID
			}
			if i < len(siblings)-1 {
				nav.NextStoryID = siblings[i+1].ID
			}
			break
		}
	}

	uc.emitViewEvent(ctx, story, callerID, now)

	return &domain.ViewStoryRes{
		Story:           story,
		CurrentProgress: story.Progress(now),
		Navigation:      nav,
	}, nil
}

// UpdateProgress 更新呼叫者的觀看進度；進度滿 100 時回傳下一則動態 ID
func (uc *storyUseCase) UpdateProgress(ctx context.Context, callerID, storyID string, progress int) (*domain.UpdateProgressRes, error) {
	if progress < 0 || progress > 100 {
		return nil, errprocess.New(errprocess.KindValidation, fmt.Sprintf("progress[%d] 必須介於 0 到 100", progress))
	}

	story, err := uc.mutateStory(ctx, callerID, storyID, func(s *domain.Story, now time.Time) error {
		s.SetViewerProgress(callerID, progress, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &domain.UpdateProgressRes{CurrentProgress: story.Progress(timeNow())}

	// 看完當前則，找同作者後一則未過期的動態
	if progress == 100 {
		next, err := uc.storyRepo.FindNextActive(ctx, story.AuthorID, story.CreatedAt, timeNow())
		if err != nil {
			return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 取得下一則動態失敗", storyID), err)
		}
		if next != nil {
			res.NextStoryID = next.ID
		}
	}
	return res, nil
}

// PauseProgress 暫停播放，回傳當前進度
func (uc *storyUseCase) PauseProgress(ctx context.Context, callerID, storyID string) (int, error) {
	story, err := uc.mutateStory(ctx, callerID, storyID, func(s *domain.Story, now time.Time) error {
		s.Pause(now)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return story.Progress(timeNow()), nil
}

// ResumeProgress 恢復播放，回傳當前進度
func (uc *storyUseCase) ResumeProgress(ctx context.Context, callerID, storyID string) (int, error) {
	story, err := uc.mutateStory(ctx, callerID, storyID, func(s *domain.Story, now time.Time) error {
		s.Resume(now)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return story.Progress(timeNow()), nil
}

// ToggleStar 切換按星，只在新增且非自己的動態時發通知
func (uc *storyUseCase) ToggleStar(ctx context.Context, callerID, storyID string) (*domain.ToggleStarRes, error) {
	var added bool
	story, err := uc.mutateStory(ctx, callerID, storyID, func(s *domain.Story, now time.Time) error {
		if s.IsExpired(now) {
			return errprocess.New(errprocess.KindValidation, fmt.Sprintf("story[%s] 已過期，無法按星", storyID))
		}
		added = s.ToggleStar(callerID, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if added && story.AuthorID != callerID {
		uc.notify(ctx, notifdomain.Event{
			RecipientID: story.AuthorID,
			SenderID:    callerID,
			Type:        notifdomain.EventStoryStar,
			StoryID:     story.ID,
			CreatedAt:   timeNow(),
		})
	}

	return &domain.ToggleStarRes{Starred: added, StarCount: story.StarCount}, nil
}

// DeleteStory 只有作者本人能刪除
func (uc *storyUseCase) DeleteStory(ctx context.Context, callerID, storyID string) error {
	deleted, err := uc.storyRepo.Delete(ctx, storyID, callerID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 刪除失敗", storyID), err)
	}
	if !deleted {
		return errprocess.New(errprocess.KindNotFound, fmt.Sprintf("story[%s] 不存在或非作者本人", storyID))
	}
	return nil
}

// authorize 呼叫者必須是作者本人或有追蹤作者
func (uc *storyUseCase) authorize(ctx context.Context, callerID, authorID string) error {
	if callerID == authorID {
		return nil
	}
	following, err := uc.follows.IsFollowing(ctx, callerID, authorID)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 追蹤關係查詢失敗", callerID), err)
	}
	if !following {
		return errprocess.New(errprocess.KindForbidden, fmt.Sprintf("user[%s] 沒有觀看 author[%s] 動態的權限", callerID, authorID))
	}
	return nil
}

// mutateStory 讀取、授權、套用變更後以樂觀鎖寫回；
// 版本衝突時重讀最新狀態再試，避免 viewers/stars 更新遺失
func (uc *storyUseCase) mutateStory(ctx context.Context, callerID, storyID string, apply func(*domain.Story, time.Time) error) (*domain.Story, error) {
	var lastErr error
	for attempt := 0; attempt < casMaxRetry; attempt++ {
		story, err := uc.storyRepo.FindByID(ctx, storyID)
		if err != nil {
			return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 查詢失敗", storyID), err)
		}
		if story == nil {
			return nil, errprocess.New(errprocess.KindNotFound, fmt.Sprintf("story[%s] 不存在", storyID))
		}
		if err := uc.authorize(ctx, callerID, story.AuthorID); err != nil {
			return nil, err
		}

		if err := apply(story, timeNow()); err != nil {
			return nil, err
		}

		err = uc.storyRepo.UpdateVersioned(ctx, story)
		if err == nil {
			return story, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 更新失敗", storyID), err)
		}
		lastErr = err
	}
	return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("story[%s] 更新衝突重試仍失敗", storyID), lastErr)
}

// notify 通知為 fire-and-forget，失敗只記錄
func (uc *storyUseCase) notify(ctx context.Context, event notifdomain.Event) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Publish(ctx, event); err != nil {
		logger.Log.Errorf(fmt.Sprintf("story[%s] 通知事件發布失敗:", event.StoryID), err)
	}
}

// emitViewEvent 分析事件 best-effort 寫入 Kafka，失敗只記錄
func (uc *storyUseCase) emitViewEvent(ctx context.Context, story *domain.Story, viewerID string, now time.Time) {
	if uc.analytics == nil {
		return
	}
	data, err := json.Marshal(domain.ViewEvent{
		StoryID:  story.ID,
		AuthorID: story.AuthorID,
		ViewerID: viewerID,
		ViewedAt: now,
	})
	if err != nil {
		logger.Log.Errorf(fmt.Sprintf("story[%s] 觀看事件序列化失敗:", story.ID), err)
		return
	}
	if err := uc.analytics.WriteMessages(ctx, kafka.Message{
		Key:   []byte(story.ID),
		Value: data,
	}); err != nil {
		logger.Log.Errorf(fmt.Sprintf("story[%s] 觀看事件寫入失敗:", story.ID), err)
	}
}
