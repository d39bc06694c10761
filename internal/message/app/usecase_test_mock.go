package app

import (
	"context"
	"time"

	mediaapp "social_story_service/internal/media/app"
	"social_story_service/internal/message/domain"
	notifdomain "social_story_service/internal/notification/domain"
	storydomain "social_story_service/internal/story/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// EnsureIndexes mock ensure indexes
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// FindOrCreateDM mock find or create dm conversation
func (m *MockConversationRepository) FindOrCreateDM(ctx context.Context, a, b string) (*domain.Conversation, error) {
	args := m.Called(ctx, a, b)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipant mock find conversations by participant
func (m *MockConversationRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// SetLastMessage mock set last message
func (m *MockConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	args := m.Called(ctx, conversationID, messageID, at)
	return args.Error(0)
}

// IncUnread mock increment unread counts
func (m *MockConversationRepository) IncUnread(ctx context.Context, conversationID string, userIDs []string) error {
	args := m.Called(ctx, conversationID, userIDs)
	return args.Error(0)
}

// ResetUnread mock reset unread count
func (m *MockConversationRepository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// EnsureIndexes mock ensure indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Insert mock insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID mock find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByConversation mock find conversation messages
func (m *MockMessageRepository) FindByConversation(ctx context.Context, conversationID string) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead mock mark message read
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageID, userID string, at time.Time) error {
	args := m.Called(ctx, messageID, userID, at)
	return args.Error(0)
}

// SoftDelete mock soft delete message
func (m *MockMessageRepository) SoftDelete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// HardDelete mock hard delete message
func (m *MockMessageRepository) HardDelete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

// MockStoryReader Mock StoryReader
type MockStoryReader struct {
	mock.Mock
}

// FindByID mock find story by id
func (m *MockStoryReader) FindByID(ctx context.Context, storyID string) (*storydomain.Story, error) {
	args := m.Called(ctx, storyID)
	if args.Get(0) != nil {
		return args.Get(0).(*storydomain.Story), args.Error(1)
	}
	return nil, args.Error(1)
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

// MockIngester Mock media Ingester
type MockIngester struct {
	mock.Mock
}

// Ingest mock run media pipeline
func (m *MockIngester) Ingest(ctx context.Context, in *mediaapp.Accepted, originalName string) (*mediaapp.IngestResult, error) {
	args := m.Called(ctx, in, originalName)
	if args.Get(0) != nil {
		return args.Get(0).(*mediaapp.IngestResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// Commit mock commit asset rows
func (m *MockIngester) Commit(ctx context.Context, res *mediaapp.IngestResult, messageID string) error {
	args := m.Called(ctx, res, messageID)
	return args.Error(0)
}

// Rollback mock rollback ingest result
func (m *MockIngester) Rollback(ctx context.Context, res *mediaapp.IngestResult) {
	m.Called(ctx, res)
}

// RemoveArtifacts mock remove media artifacts
func (m *MockIngester) RemoveArtifacts(ctx context.Context, payload *domain.MediaPayload, messageID string) {
	m.Called(ctx, payload, messageID)
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
