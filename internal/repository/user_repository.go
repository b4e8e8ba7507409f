package repository

import (
	"context"
	"errors"

	"menuapi/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

var ErrUsernameTaken = errors.New("username already taken")

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	// usernameからユーザーを一件取得する。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// アクティブかどうか・最後のログイン・パスワードなど
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
