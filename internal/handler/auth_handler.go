package handler

import (
	"errors"
	"net/http"

	"menuapi/internal/usecase"
	auth "menuapi/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	loginUC   *auth.LoginUsecase   // トークン交換usecase
	refreshUC *auth.RefreshUsecase // access再発行usecase
	logoutUC  *auth.LogoutUsecase  // tv更新usecase
}

// DIコンストラクタ
func NewAuthHandler(loginUC *auth.LoginUsecase, refreshUC *auth.RefreshUsecase, logoutUC *auth.LogoutUsecase) *AuthHandler {
	return &AuthHandler{
		loginUC:   loginUC,
		refreshUC: refreshUC,
		logoutUC:  logoutUC,
	}
}

// logoutだけBearer必須
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, requireAuth ...echo.MiddlewareFunc) {
	e.POST("/token", h.obtain)
	e.POST("/token/refresh", h.refresh)
	e.POST("/token/logout", h.logout, requireAuth...)
}

// /token のリクエストボディ。
type tokenRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// /token/refresh のリクエストボディ。
type refreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

type accessResponse struct {
	Access string `json:"access"`
}

// POST /token: username/password => {access, refresh}
func (h *AuthHandler) obtain(c echo.Context) error {
	var req tokenRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return writeError(c, usecase.NewValidationError(err))
	}

	pair, err := h.loginUC.Execute(c.Request().Context(), auth.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		case errors.Is(err, auth.ErrUserInactive):
			return c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
		default:
			return writeError(c, err)
		}
	}

	return c.JSON(http.StatusOK, pair)
}

// POST /token/refresh: {refresh} => {access}
func (h *AuthHandler) refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}
	if err := c.Validate(req); err != nil {
		return writeError(c, usecase.NewValidationError(err))
	}

	access, err := h.refreshUC.Execute(c.Request().Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, accessResponse{Access: access})
}

// POST /token/logout: 発行済みのaccess/refreshをすべて無効にする
func (h *AuthHandler) logout(c echo.Context) error {
	if err := h.logoutUC.Execute(c.Request().Context()); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
