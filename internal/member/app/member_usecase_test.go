package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"social_story_service/internal/member/domain"
	"social_story_service/internal/member/repository"
	"social_story_service/pkg/encrypt"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
	token "social_story_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.SetNewNop()
}

// MockMemberRepository Mock MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

// CreateUser mock create member
func (m *MockMemberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

// FindByMember mock find member
func (m *MockMemberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// Follow mock follow
func (m *MockMemberRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

// Unfollow mock unfollow
func (m *MockMemberRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

// IsFollowing mock follow lookup
func (m *MockMemberRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	args := m.Called(ctx, followerID, followeeID)
	return args.Bool(0), args.Error(1)
}

// FollowingIDs mock following list lookup
func (m *MockMemberRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	args := m.Called(ctx, followerID)
	if args.Get(0) != nil {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeFollowCache in-memory 的 RedisRepository[[]string]
type fakeFollowCache struct {
	mu   sync.Mutex
	data map[string][]string
}

func newFakeFollowCache() *fakeFollowCache {
	return &fakeFollowCache{data: map[string][]string{}}
}

func (f *fakeFollowCache) Set(ctx context.Context, key string, value []string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return nil
}

func (f *fakeFollowCache) Get(ctx context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (f *fakeFollowCache) Del(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func (f *fakeFollowCache) GetTTL(ctx context.Context, key string) (int, error) { return 0, nil }

func (f *fakeFollowCache) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

// 測試註冊的驗證與重複 email
func TestMemberUseCase_Register(t *testing.T) {
	ctx := context.Background()
	email := "new@example.com"

	mockRepo := new(MockMemberRepository)
	mockRepo.On("FindByMember", ctx, mock.Anything).Return(nil, repository.ErrMemberNotFound)
	mockRepo.On("CreateUser", ctx, mock.MatchedBy(func(m *domain.Member) bool {
		return m.Email == email && m.MemberID != "" && m.Password != "StrongPass1"
	})).Return(nil)

	uc := NewMemberUseCase(mockRepo, nil)

	err := uc.Register(ctx, domain.RegisterReq{Username: "alice", Email: email, Password: "StrongPass1"})
	require.NoError(t, err)

	// 密碼強度不足
	err = uc.Register(ctx, domain.RegisterReq{Username: "bob", Email: "b@example.com", Password: "weak"})
	assert.True(t, errprocess.IsKind(err, errprocess.KindValidation))
	mockRepo.AssertExpectations(t)
}

// 測試登入成功簽發 token、密碼錯誤被拒
func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()
	hashed, err := encrypt.HashPassword("StrongPass1")
	require.NoError(t, err)
	member := &domain.Member{ID: 1, MemberID: "member-1", Email: "a@example.com", Password: hashed}

	oldGen := token.GenerateJWTFunc
	token.GenerateJWTFunc = func(memberID, role, issuer string) (string, error) {
		return "test-token", nil
	}
	t.Cleanup(func() { token.GenerateJWTFunc = oldGen })

	mockRepo := new(MockMemberRepository)
	mockRepo.On("FindByMember", ctx, mock.Anything).Return(member, nil)

	uc := NewMemberUseCase(mockRepo, nil)

	res, err := uc.Login(ctx, "a@example.com", "StrongPass1")
	require.NoError(t, err)
	assert.Equal(t, "test-token", res.Token)
	assert.Equal(t, "member-1", res.MemberID)

	_, err = uc.Login(ctx, "a@example.com", "WrongPass1")
	assert.True(t, errprocess.IsKind(err, errprocess.KindForbidden))
}

// 測試追蹤名單的快取：miss 回 DB 撈並回填，之後不再打 DB
func TestMemberUseCase_FollowingIDsCached(t *testing.T) {
	ctx := context.Background()

	mockRepo := new(MockMemberRepository)
	mockRepo.On("FollowingIDs", ctx, "user-a").Return([]string{"user-b", "user-c"}, nil).Once()

	cache := newFakeFollowCache()
	uc := NewMemberUseCase(mockRepo, cache)

	ids, err := uc.FollowingIDs(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-b", "user-c"}, ids)

	// 第二次命中快取，DB 只會被打一次
	ids, err = uc.FollowingIDs(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{"user-b", "user-c"}, ids)

	following, err := uc.IsFollowing(ctx, "user-a", "user-b")
	require.NoError(t, err)
	assert.True(t, following)

	following, err = uc.IsFollowing(ctx, "user-a", "stranger")
	require.NoError(t, err)
	assert.False(t, following)

	mockRepo.AssertExpectations(t)
}

// 測試追蹤異動讓快取失效
func TestMemberUseCase_FollowInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	followee := "user-b"

	mockRepo := new(MockMemberRepository)
	mockRepo.On("FindByMember", ctx, mock.Anything).Return(&domain.Member{MemberID: followee}, nil)
	mockRepo.On("Follow", ctx, "user-a", followee).Return(nil)
	mockRepo.On("FollowingIDs", ctx, "user-a").Return([]string{followee}, nil)

	cache := newFakeFollowCache()
	cache.Set(ctx, "following:user-a", []string{}, 0)

	uc := NewMemberUseCase(mockRepo, cache)

	require.NoError(t, uc.Follow(ctx, "user-a", followee))

	// 快取已失效，重新查 DB 拿到新名單
	ids, err := uc.FollowingIDs(ctx, "user-a")
	require.NoError(t, err)
	assert.Equal(t, []string{followee}, ids)

	// 自追蹤被拒
	err = uc.Follow(ctx, "user-a", "user-a")
	assert.True(t, errprocess.IsKind(err, errprocess.KindValidation))
}
