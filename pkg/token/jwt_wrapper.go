package token

import "social_story_service/pkg/config"

// 這些變數會在測試時被覆蓋
var (
	GenerateJWTFunc = GenerateJWT
	ParseJWTFunc    = ParseJWT
)

// GenerateJWTWrapper 讓 memberUseCase test mock 使用這個包裝函數
func GenerateJWTWrapper(memberID, role string) (string, error) {
	return GenerateJWTFunc(memberID, role, config.EnvConfig.MemberService)
}

// ParseJWTWrapper 讓 memberUseCase test mock 使用這個包裝函數
func ParseJWTWrapper(t string) (*Claims, error) {
	return ParseJWTFunc(t)
}
