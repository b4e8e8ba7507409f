package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DBの疎通確認
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
}

// DI
func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.healthz)
	e.GET("/readyz", h.readyz)
}

type statusResponse struct {
	Status string `json:"status"`
}

// プロセスが生きていれば200
func (h *HealthHandler) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}

// DBに繋がらなければ503
func (h *HealthHandler) readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		zap.L().Warn("readiness check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "ok"})
}
