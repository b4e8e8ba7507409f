package handler

import (
	"net/http"

	"menuapi/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /products の作成・更新・削除。全部Bearer必須
type ProductWriteHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductWriteHandler(uc *usecase.ProductUsecase) *ProductWriteHandler {
	return &ProductWriteHandler{uc: uc}
}

// 書き込みルートを登録。mwsには必ず認証を渡す
func (h *ProductWriteHandler) RegisterRoutes(e *echo.Echo, mws ...echo.MiddlewareFunc) {
	e.POST("/products", h.create, mws...)
	e.PUT("/products/:id", h.replace, mws...)
	e.PATCH("/products/:id", h.patch, mws...)
	e.DELETE("/products/:id", h.delete, mws...)
}

func (h *ProductWriteHandler) create(c echo.Context) error {
	var req usecase.ProductInput
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductWriteHandler) replace(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.ProductInput
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.Replace(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductWriteHandler) patch(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}

	var req usecase.ProductPatchInput
	if err := bindJSON(c, &req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.Patch(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductWriteHandler) delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return writeError(c, err)
	}

	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
