package domain

import (
	"time"

	"social_story_service/pkg/encrypt"
)

// Member 用來表示使用者
type Member struct {
	ID        int64
	MemberID  string
	Username  string
	Email     string
	Password  string
	CreatedAt time.Time
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// MemberQuery join conditions are used to query members
type MemberQuery struct {
	ID       *int64  `db:"id"`
	MemberID *string `db:"member_id"`
	Email    *string `db:"email"`
	Username *string `db:"username"`
}

// RegisterReq usecase register request
type RegisterReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRes usecase login response
type LoginRes struct {
	Token    string `json:"token"`
	MemberID string `json:"member_id"`
}
