package app

import (
	"context"
	"fmt"
	"time"

	"social_story_service/internal/member/domain"
	"social_story_service/internal/member/repository"
	"social_story_service/pkg"
	"social_story_service/pkg/database"
	"social_story_service/pkg/encrypt"
	errprocess "social_story_service/pkg/err"
	"social_story_service/pkg/logger"
	token "social_story_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// followCacheTTL 追蹤名單快取的存活時間
const followCacheTTL = 5 * time.Minute

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Register(ctx context.Context, req domain.RegisterReq) error
	Login(ctx context.Context, email, password string) (*domain.LoginRes, error)
	FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error)
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error

	// IsFollowing 與 FollowingIDs 供 story/message usecase 做授權查詢，
	// 走 redis 快取，追蹤異動時失效
	IsFollowing(ctx context.Context, followerID, authorID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	cache      database.RedisRepository[[]string]
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(
	memberRepo repository.MemberRepository,
	cache database.RedisRepository[[]string],
) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		cache:      cache,
	}
}

// Register 註冊新使用者
func (m *memberUseCase) Register(ctx context.Context, req domain.RegisterReq) error {
	if req.Username == "" || req.Email == "" {
		return errprocess.New(errprocess.KindValidation, "username and email are required")
	}
	if err := encrypt.ValidatePasswordStrength(req.Password); err != nil {
		return errprocess.Wrap(errprocess.KindValidation, "password too weak", err)
	}

	// 檢查 email 是否已存在
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &req.Email}); err == nil {
		return errprocess.New(errprocess.KindValidation, fmt.Sprintf("email[%s] already exists", req.Email))
	}

	pw, err := encrypt.HashPassword(req.Password)
	if err != nil {
		return errprocess.Wrap(errprocess.KindStorage, "password hash failed", err)
	}

	member := domain.Member{
		MemberID: uuid.New().String(),
		Username: req.Username,
		Email:    req.Email,
		Password: pw,
	}
	if err := m.memberRepo.CreateUser(ctx, &member); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("member[%s] 建立失敗", member.MemberID), err)
	}
	return nil
}

// Login 登入並簽發 JWT
func (m *memberUseCase) Login(ctx context.Context, email, password string) (*domain.LoginRes, error) {
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		logger.Log.Error("email can't find!!!")
		return nil, errprocess.New(errprocess.KindNotFound, "user not found")
	}
	if err = member.IsPasswordMatch(password); err != nil {
		logger.Log.Error("password can't match!!!")
		return nil, errprocess.New(errprocess.KindForbidden, "invalid credentials")
	}

	jwt, err := token.GenerateJWTWrapper(member.MemberID, string(token.RoleMember))
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, "token generate failed", err)
	}
	return &domain.LoginRes{Token: jwt, MemberID: member.MemberID}, nil
}

// FindMember 查使用者
func (m *memberUseCase) FindMember(ctx context.Context, param *domain.MemberQuery) (*domain.Member, error) {
	return m.memberRepo.FindByMember(ctx, param)
}

// Follow 建立追蹤關係並讓快取失效
func (m *memberUseCase) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return errprocess.New(errprocess.KindValidation, "cannot follow yourself")
	}
	if _, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &followeeID}); err != nil {
		return errprocess.New(errprocess.KindNotFound, fmt.Sprintf("member[%s] 不存在", followeeID))
	}
	if err := m.memberRepo.Follow(ctx, followerID, followeeID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 追蹤失敗", followerID), err)
	}
	m.invalidate(ctx, followerID)
	return nil
}

// Unfollow 解除追蹤並讓快取失效
func (m *memberUseCase) Unfollow(ctx context.Context, followerID, followeeID string) error {
	if err := m.memberRepo.Unfollow(ctx, followerID, followeeID); err != nil {
		return errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 解除追蹤失敗", followerID), err)
	}
	m.invalidate(ctx, followerID)
	return nil
}

// FollowingIDs 先走快取，miss 時回 DB 撈再回填
func (m *memberUseCase) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	key := followCacheKey(userID)
	if m.cache != nil {
		ids, err := m.cache.Get(ctx, key)
		if err == nil {
			return ids, nil
		}
		if err != redis.Nil {
			// 快取故障不影響查詢，降級走 DB
			logger.Log.Errorf(fmt.Sprintf("user[%s] 追蹤名單快取讀取失敗:", userID), err)
		}
	}

	ids, err := m.memberRepo.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, errprocess.Wrap(errprocess.KindStorage, fmt.Sprintf("user[%s] 追蹤名單查詢失敗", userID), err)
	}
	if m.cache != nil {
		if err := m.cache.Set(ctx, key, ids, followCacheTTL); err != nil {
			logger.Log.Errorf(fmt.Sprintf("user[%s] 追蹤名單快取寫入失敗:", userID), err)
		}
	}
	return ids, nil
}

// IsFollowing 以快取的追蹤名單判斷
func (m *memberUseCase) IsFollowing(ctx context.Context, followerID, authorID string) (bool, error) {
	ids, err := m.FollowingIDs(ctx, followerID)
	if err != nil {
		return false, err
	}
	return pkg.Contains(ids, authorID), nil
}

func (m *memberUseCase) invalidate(ctx context.Context, userID string) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Del(ctx, followCacheKey(userID)); err != nil {
		logger.Log.Errorf(fmt.Sprintf("user[%s] 追蹤名單快取失效失敗:", userID), err)
	}
}

func followCacheKey(userID string) string {
	return "following:" + userID
}
