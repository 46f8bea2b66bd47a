package content

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kidsgourmet/api/internal/platform/auth"
	"github.com/kidsgourmet/api/pkg/apperr"
	"github.com/kidsgourmet/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes splits reads (public) from writes (authenticated). The
// server's path skipper excludes the GET routes from JWT checks.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/recipes", h.ListRecipes)
	api.GET("/recipes/:id", h.GetRecipe)
	api.POST("/recipes", h.CreateRecipe)
	api.PUT("/recipes/:id", h.UpdateRecipe)
	api.DELETE("/recipes/:id", h.DeleteRecipe)

	api.GET("/ingredients", h.ListIngredients)
	api.GET("/ingredients/:id", h.GetIngredient)
	api.POST("/ingredients", h.CreateIngredient)
	api.PUT("/ingredients/:id", h.UpdateIngredient)
	api.DELETE("/ingredients/:id", h.DeleteIngredient)

	api.GET("/discussions", h.ListThreads)
	api.GET("/discussions/:id", h.GetThread)
	api.POST("/discussions", h.CreateDiscussion)
	api.DELETE("/discussions/:id", h.DeleteDiscussion)
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Recipes --

func (h *Handler) CreateRecipe(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var r Recipe
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateRecipe(c.Request().Context(), userID, &r)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetRecipe(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.GetRecipe(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) ListRecipes(c echo.Context) error {
	pg := pagination.FromContext(c)
	var maxAge *int
	if raw := c.QueryParam("max_age_months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid max_age_months")
		}
		maxAge = &v
	}
	items, total, err := h.svc.ListRecipes(c.Request().Context(), maxAge, c.QueryParam("tag"), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateRecipe(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var r Recipe
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdateRecipe(c.Request().Context(), userID, id, &r)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteRecipe(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteRecipe(c.Request().Context(), userID, id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Ingredients --

func (h *Handler) CreateIngredient(c echo.Context) error {
	if _, err := auth.UserID(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var i Ingredient
	if err := c.Bind(&i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateIngredient(c.Request().Context(), &i)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetIngredient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	i, err := h.svc.GetIngredient(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) ListIngredients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListIngredients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateIngredient(c echo.Context) error {
	if _, err := auth.UserID(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var i Ingredient
	if err := c.Bind(&i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdateIngredient(c.Request().Context(), id, &i)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteIngredient(c echo.Context) error {
	if _, err := auth.UserID(c); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteIngredient(c.Request().Context(), id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Discussions --

func (h *Handler) CreateDiscussion(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var d Discussion
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateDiscussion(c.Request().Context(), userID, &d)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetThread(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetThread(c.Request().Context(), id)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListThreads(c echo.Context) error {
	pg := pagination.FromContext(c)
	threads, total, err := h.svc.ListThreads(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(threads, total, pg.Limit, pg.Offset))
}

func (h *Handler) DeleteDiscussion(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDiscussion(c.Request().Context(), userID, id); err != nil {
		return apperr.JSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
