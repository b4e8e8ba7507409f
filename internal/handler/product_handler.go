package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"menuapi/internal/pagination"
	"menuapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の参照API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// 参照ルートを登録。READ_REQUIRES_AUTHならmwsに認証が入る
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.GET("/products", h.list, mws...)
	e.GET("/products/:id", h.detail, mws...)
}

func (h *ProductHandler) list(c echo.Context) error {
	out, err := h.uc.ListProducts(c.Request().Context(), c.QueryParams())
	if err != nil {
		return writeError(c, err)
	}

	page := pagination.NewPage(out.Items, out.Total, out.Request, requestURL(c))
	return c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

// next/previousの元になる絶対URL
func requestURL(c echo.Context) *url.URL {
	r := c.Request()
	return &url.URL{
		Scheme:   c.Scheme(),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
	}
}

func parseID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &usecase.HTTPError{
			Status:  http.StatusBadRequest,
			Message: "validation failed",
			Fields:  map[string]string{"id": "a valid positive integer is required"},
		}
	}
	return id, nil
}
