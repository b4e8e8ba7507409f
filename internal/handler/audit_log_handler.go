package handler

import (
	"net/http"

	"menuapi/internal/pagination"
	"menuapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 商品変更の監査ログ参照
type AuditLogHandler struct {
	uc *usecase.AuditLogUsecase
}

// DI
func NewAuditLogHandler(uc *usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{uc: uc}
}

func (h *AuditLogHandler) RegisterRoutes(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.GET("/audit-logs", h.list, mws...)
}

func (h *AuditLogHandler) list(c echo.Context) error {
	out, err := h.uc.List(c.Request().Context(), c.QueryParams())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewPage(out.Items, out.Total, out.Request, requestURL(c)))
}
