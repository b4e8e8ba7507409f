package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"menuapi/internal/domain/model"
	"menuapi/internal/infra/token"
	"menuapi/internal/repository"
)

// POST /token の入力
type LoginInput struct {
	Username string
	Password string
}

var (
	// usernameかパスワードが違う
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
	// 停止済みユーザー
	ErrUserInactive = errors.New("user is inactive")
	// refreshが無効（期限切れ・改ざん・失効）
	ErrInvalidRefreshToken = errors.New("token is invalid or expired")
)

// access/refreshを発行する約束
type TokenIssuer interface {
	IssuePair(user model.User) (token.Pair, error)
	IssueAccess(user model.User) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type LoginUsecase struct {
	userRepo repository.UserRepository
	verifier PasswordVerifier
	issuer   TokenIssuer
	clock    Clock
}

// DI
func NewLoginUsecase(
	userRepo repository.UserRepository,
	verifier PasswordVerifier,
	issuer TokenIssuer,
	clock Clock,
) *LoginUsecase {
	return &LoginUsecase{
		userRepo: userRepo,
		verifier: verifier,
		issuer:   issuer,
		clock:    clock,
	}
}

// ログイン処理を実行する
func (u *LoginUsecase) Execute(ctx context.Context, in LoginInput) (token.Pair, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return token.Pair{}, ErrInvalidCredentials
	}

	//usernameでユーザー取得
	user, err := u.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return token.Pair{}, ErrInvalidCredentials
		}
		return token.Pair{}, err
	}

	//パスワード照合（停止判定より先）
	if ok := u.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return token.Pair{}, ErrInvalidCredentials
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return token.Pair{}, ErrUserInactive
	}

	pair, err := u.issuer.IssuePair(*user)
	if err != nil {
		return token.Pair{}, err
	}

	//最終ログイン時刻更新
	now := u.clock.Now()
	user.LastLoginAt = &now
	if err := u.userRepo.Update(ctx, user); err != nil {
		return token.Pair{}, err
	}

	return pair, nil
}
