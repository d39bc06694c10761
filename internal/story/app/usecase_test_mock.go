package app

import (
	"context"
	"time"

	notifdomain "social_story_service/internal/notification/domain"
	"social_story_service/internal/story/domain"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockStoryRepository Mock StoryRepository
type MockStoryRepository struct {
	mock.Mock
}

// EnsureIndexes mock ensure indexes
func (m *MockStoryRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Create mock create story
func (m *MockStoryRepository) Create(ctx context.Context, story *domain.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

// FindByID mock find story by story id
func (m *MockStoryRepository) FindByID(ctx context.Context, storyID string) (*domain.Story, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindActiveByAuthor mock find author reel
func (m *MockStoryRepository) FindActiveByAuthor(ctx context.Context, authorID string, now time.Time) ([]domain.Story, error) {
	args := m.Called(ctx, authorID, now)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindActiveByAuthors mock find feed stories
func (m *MockStoryRepository) FindActiveByAuthors(ctx context.Context, authorIDs []string, now time.Time) ([]domain.Story, error) {
	args := m.Called(ctx, authorIDs, now)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindNextActive mock find next sibling story
func (m *MockStoryRepository) FindNextActive(ctx context.Context, authorID string, after, now time.Time) (*domain.Story, error) {
	args := m.Called(ctx, authorID, after, now)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Story), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateVersioned mock versioned update
func (m *MockStoryRepository) UpdateVersioned(ctx context.Context, story *domain.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}

// Delete mock delete story
func (m *MockStoryRepository) Delete(ctx context.Context, storyID, authorID string) (bool, error) {
	args := m.Called(ctx, storyID, authorID)
	return args.Bool(0), args.Error(1)
}

// MockFollowChecker Mock FollowChecker
type MockFollowChecker struct {
	mock.Mock
}

// IsFollowing mock follow lookup
func (m *MockFollowChecker) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	args := m.Called(ctx, followerID, authorID)
	return args.Bool(0), args.Error(1)
}

// FollowingIDs mock following list lookup
func (m *MockFollowChecker) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockEventPublisher Mock EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

// Publish mock publish notification event
func (m *MockEventPublisher) Publish(ctx context.Context, event notifdomain.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockAnalyticsWriter Mock AnalyticsWriter
type MockAnalyticsWriter struct {
	mock.Mock
}

// WriteMessages mock kafka write
func (m *MockAnalyticsWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}
