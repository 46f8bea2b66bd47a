package newsletter

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kidsgourmet/api/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the public newsletter endpoints; the server's
// path skipper keeps them outside the JWT middleware.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/newsletter/subscribe", h.Subscribe)
	api.GET("/newsletter/confirm", h.Confirm)
	api.POST("/newsletter/unsubscribe", h.Unsubscribe)
}

func (h *Handler) Subscribe(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.Subscribe(c.Request().Context(), body.Email)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  sub.Status,
		"message": "check your inbox for the confirmation email",
	})
}

func (h *Handler) Confirm(c echo.Context) error {
	sub, err := h.svc.Confirm(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Unsubscribe(c echo.Context) error {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.Unsubscribe(c.Request().Context(), body.Email)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, sub)
}
