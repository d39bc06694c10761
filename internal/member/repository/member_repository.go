package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"social_story_service/internal/member/domain"
)

// ErrMemberNotFound 查無符合條件的使用者
var ErrMemberNotFound = errors.New("no member found with given criteria")

// MemberRepository definition get Member info
type MemberRepository interface {
	CreateUser(ctx context.Context, member *domain.Member) error
	FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error)
	// Follow 重複追蹤為 no-op
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	FollowingIDs(ctx context.Context, followerID string) ([]string, error)
}

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) CreateUser(ctx context.Context, member *domain.Member) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO member(member_id, username, email, password) VALUES ($1, $2, $3, $4)",
		member.MemberID, member.Username, member.Email, member.Password)
	return err
}

func (r *memberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	queryStr := "SELECT id, member_id, username, email, password FROM member WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if memberQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *memberQuery.Email)
		paramCount++
	}
	if memberQuery.MemberID != nil {
		queryStr += fmt.Sprintf(" AND member_id = $%d", paramCount)
		params = append(params, *memberQuery.MemberID)
		paramCount++
	}
	if memberQuery.Username != nil {
		queryStr += fmt.Sprintf(" AND username = $%d", paramCount)
		params = append(params, *memberQuery.Username)
		paramCount++
	}
	if memberQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *memberQuery.ID)
		paramCount++
	}

	row := r.db.QueryRow(ctx, queryStr, params...)
	var member domain.Member
	err := row.Scan(&member.ID, &member.MemberID, &member.Username, &member.Email, &member.Password)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (r *memberRepository) Follow(ctx context.Context, followerID, followeeID string) error {
	_, err := r.db.Exec(ctx,
		"INSERT INTO follow(follower_id, followee_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		followerID, followeeID)
	return err
}

func (r *memberRepository) Unfollow(ctx context.Context, followerID, followeeID string) error {
	_, err := r.db.Exec(ctx,
		"DELETE FROM follow WHERE follower_id = $1 AND followee_id = $2",
		followerID, followeeID)
	return err
}

func (r *memberRepository) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM follow WHERE follower_id = $1 AND followee_id = $2)",
		followerID, followeeID).Scan(&exists)
	return exists, err
}

func (r *memberRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		"SELECT followee_id FROM follow WHERE follower_id = $1", followerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
