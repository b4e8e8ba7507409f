package server

import (
	"context"

	"menuapi/internal/config"
	"menuapi/internal/handler"
	"menuapi/internal/infra/db"
	infraRepo "menuapi/internal/infra/repository"
	"menuapi/internal/infra/token"
	appmw "menuapi/internal/middleware"
	"menuapi/internal/usecase"
	auth "menuapi/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func registerRoutes(e *echo.Echo, cfg config.Config, gormDB *gorm.DB) {
	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	tokens := token.NewManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, txManager)
	loginUC := auth.NewLoginUsecase(userRepo, auth.NewBcryptPasswordVerifier(), tokens, auth.SystemClock{})
	refreshUC := auth.NewRefreshUsecase(userRepo, tokens, tokens)
	logoutUC := auth.NewLogoutUsecase(userRepo)
	auditUC := usecase.NewAuditLogUsecase(infraRepo.NewAuditLogGormRepository(gormDB))

	//Bearer必須のルートに付ける
	requireAuth := []echo.MiddlewareFunc{
		appmw.AuthJWT(tokens),
		appmw.TokenVersionGuard(userRepo),
	}
	var readMW []echo.MiddlewareFunc
	if cfg.ReadRequiresAuth {
		readMW = requireAuth
	}

	//Handler生成・登録
	handler.NewHealthHandler(func(ctx context.Context) error {
		return db.Ping(ctx, gormDB)
	}).RegisterRoutes(e)
	handler.NewAuthHandler(loginUC, refreshUC, logoutUC).RegisterRoutes(e, requireAuth...)
	handler.NewProductHandler(productUC).RegisterRoutes(e, readMW...)
	handler.NewProductWriteHandler(productUC).RegisterRoutes(e, requireAuth...)
	handler.NewAuditLogHandler(auditUC).RegisterRoutes(e, requireAuth...)
}
