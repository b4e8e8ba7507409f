package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"menuapi/internal/domain/model"
	"menuapi/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// ユーザー作成の入力
type RegisterUserInput struct {
	Username string
	Password string
}

// ユーザー作成の出力
type RegisterUserOutput struct {
	User    model.User
	Created bool
}

var (
	// 入力が不正
	ErrInvalidUsername  = errors.New("username must be 1-150 characters of letters, digits and @/./+/-/_")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrWeakPassword     = errors.New("password is too common")

	// 競合
	ErrUsernameTaken = repository.ErrUsernameTaken
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]{1,150}$`)

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// RegisterUserUsecaseはトークン交換用ユーザーの作成。
// 公開の登録APIはなく、起動時とseedから使う。
type RegisterUserUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
}

// DI
func NewRegisterUserUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
) *RegisterUserUsecase {
	return &RegisterUserUsecase{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

// ユーザー作成実行
func (u *RegisterUserUsecase) Execute(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	var out RegisterUserOutput

	username := strings.TrimSpace(in.Username)
	if !usernamePattern.MatchString(username) {
		return out, ErrInvalidUsername
	}
	if len(in.Password) < 8 {
		return out, ErrPasswordTooShort
	}
	if isWeakPassword(in.Password) {
		return out, ErrWeakPassword
	}

	// username重複チェック
	existing, err := u.userRepo.FindByUsername(ctx, username)
	if err == nil && existing != nil {
		return out, ErrUsernameTaken
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, err
	}

	// パスワードをハッシュ化
	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return out, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hashed, // ハッシュを保存（平文は保存しない）
		IsActive:     true,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return out, err
	}

	out.User = *user
	out.Created = true
	return out, nil
}

// 既にいればそのまま返す（パスワードは変えない）
func (u *RegisterUserUsecase) Ensure(ctx context.Context, in RegisterUserInput) (RegisterUserOutput, error) {
	out, err := u.Execute(ctx, in)
	if !errors.Is(err, ErrUsernameTaken) {
		return out, err
	}

	existing, err := u.userRepo.FindByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		return RegisterUserOutput{}, err
	}
	return RegisterUserOutput{User: *existing}, nil
}

// よくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password123":  {},
		"123456789012": {},
		"1234567890":   {},
		"12345678":     {},
		"qwertyuiop":   {},
		"letmein1":     {},
		"admin123":     {},
	}

	_, ok := weak[normalized]
	return ok
}

// bcryptハッシュ化
type BcryptPasswordHasher struct {
	cost int
}

// DI
func NewBcryptPasswordHasher(cost int) *BcryptPasswordHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordHasher{cost}
}

// bcryptでハッシュ化
func (h *BcryptPasswordHasher) Hash(plain string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedBytes), nil
}

// bcryptハッシュと平文を比較
type BcryptPasswordVerifier struct{}

// DI
func NewBcryptPasswordVerifier() *BcryptPasswordVerifier {
	return &BcryptPasswordVerifier{}
}

// 平文(plain)をbcryptで比較
func (v *BcryptPasswordVerifier) Verify(plain string, hashed string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}
