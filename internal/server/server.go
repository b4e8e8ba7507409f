package server

import (
	"errors"
	"net/http"
	"strings"

	"menuapi/internal/config"
	"menuapi/internal/handler"
	appmw "menuapi/internal/middleware"
	"menuapi/internal/validator"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Newは依存を組み立ててルート登録済みのechoを返す。
func New(cfg config.Config, logger *zap.Logger, gormDB *gorm.DB) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)
	e.Validator = validator.New()

	//末尾スラッシュ有無どちらも受ける
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if cfg.MetricsEnabled {
		registerMetrics(e)
	}

	registerRoutes(e, cfg, gormDB)
	return e
}

// サーバごとにレジストリを分ける（テストで何度Newしても衝突しない）
func registerMetrics(e *echo.Echo) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "menuapi",
		Registerer: reg,
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/metrics", "/healthz", "/readyz":
				return true
			}
			return false
		},
	}))
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg}))
}

// echo自体のエラー（404ルート・405・panic）もErrorResponseの形にする
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				msg = strings.ToLower(m)
			}
		}
		if status >= http.StatusInternalServerError {
			logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			msg = "internal error"
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, handler.ErrorResponse{Error: msg})
	}
}
