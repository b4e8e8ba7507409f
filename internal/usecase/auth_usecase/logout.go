package auth

import (
	"context"
	"net/http"

	"menuapi/internal/identity"
	"menuapi/internal/repository"
	"menuapi/internal/usecase"
)

// LogoutUsecaseはtoken_versionを上げて、そのユーザーの発行済みトークンを全部無効にする。
type LogoutUsecase struct {
	userRepo repository.UserRepository
}

// DI
func NewLogoutUsecase(userRepo repository.UserRepository) *LogoutUsecase {
	return &LogoutUsecase{userRepo: userRepo}
}

func (u *LogoutUsecase) Execute(ctx context.Context) error {
	id, ok := identity.FromContext(ctx)
	if !ok {
		return usecase.NewHTTPError(http.StatusUnauthorized, "authentication credentials were not provided")
	}
	if err := u.userRepo.IncrementTokenVersion(ctx, id.UserID); err != nil {
		return err
	}
	return nil
}
