package auth

import (
	"context"
	"errors"

	"menuapi/internal/infra/token"
	"menuapi/internal/repository"
)

// refreshトークンを検証する約束
type RefreshTokenParser interface {
	ParseRefresh(raw string) (*token.Claims, error)
}

type RefreshUsecase struct {
	userRepo repository.UserRepository
	parser   RefreshTokenParser
	issuer   TokenIssuer
}

// DI
func NewRefreshUsecase(
	userRepo repository.UserRepository,
	parser RefreshTokenParser,
	issuer TokenIssuer,
) *RefreshUsecase {
	return &RefreshUsecase{
		userRepo: userRepo,
		parser:   parser,
		issuer:   issuer,
	}
}

// 新しいaccessを返す。refresh自体はそのまま
func (u *RefreshUsecase) Execute(ctx context.Context, rawRefresh string) (string, error) {
	claims, err := u.parser.ParseRefresh(rawRefresh)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	userID, err := claims.UserID()
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	//ユーザーを読み直す（停止・強制ログアウトを反映）
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}
	if !user.IsActive || user.TokenVersion != claims.TokenVersion {
		return "", ErrInvalidRefreshToken
	}

	return u.issuer.IssueAccess(*user)
}
