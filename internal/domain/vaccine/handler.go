package vaccine

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kidsgourmet/api/internal/platform/auth"
	"github.com/kidsgourmet/api/pkg/apperr"
)

type Handler struct {
	svc     *Service
	wizard  *Wizard
	inline  *SideEffectManager
	tracker *SideEffectTracker
}

func NewHandler(svc *Service, wizard *Wizard, inline *SideEffectManager, tracker *SideEffectTracker) *Handler {
	return &Handler{svc: svc, wizard: wizard, inline: inline, tracker: tracker}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/children/:id/vaccines/schedule", h.CreateSchedule)
	api.GET("/children/:id/vaccines", h.ListChildVaccines)
	api.GET("/children/:id/vaccines/stats", h.ChildStats)

	api.POST("/vaccines/records/:id/done", h.MarkAsDone)
	api.PUT("/vaccines/records/:id/status", h.UpdateStatus)
	api.POST("/vaccines/records/:id/side-effects", h.ReportInline)
	api.POST("/vaccines/records/:id/side-effect-reports", h.ReportDetailed)
	api.GET("/vaccines/records/:id/side-effect-reports", h.ListDetailedReports)
	api.GET("/vaccines/side-effects/stats", h.SideEffectStats)

	api.GET("/vaccines/private/options", h.PrivateOptions)
	api.POST("/children/:id/vaccines/private/validate", h.ValidatePrivate)
	api.POST("/children/:id/vaccines/private", h.AddPrivate)
	api.DELETE("/children/:id/vaccines/private/:base", h.RemovePrivateSeries)
}

func bindIDs(c echo.Context) (userID, pathID uuid.UUID, err error) {
	userID, err = auth.UserID(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	pathID, err = uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return userID, pathID, nil
}

func (h *Handler) CreateSchedule(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var body struct {
		IncludePrivate bool `json:"include_private"`
	}
	if err := c.Bind(&body); err != nil && c.Request().ContentLength > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	records, err := h.svc.CreateScheduleForChild(c.Request().Context(), userID, childID, body.IncludePrivate)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"records": records, "count": len(records)})
}

func (h *Handler) ListChildVaccines(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	views, err := h.svc.GetChildVaccines(c.Request().Context(), userID, childID, c.QueryParam("status"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"vaccines": views, "count": len(views)})
}

func (h *Handler) ChildStats(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	stats, err := h.svc.GetChildStats(c.Request().Context(), userID, childID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) MarkAsDone(c echo.Context) error {
	userID, recordID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var body struct {
		ActualDate string `json:"actual_date"`
		Notes      string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	actual, err := time.Parse("2006-01-02", body.ActualDate)
	if err != nil {
		return apperr.JSON(c, apperr.Validation("invalid_actual_date", "actual_date must be formatted YYYY-MM-DD"))
	}
	rec, err := h.svc.MarkAsDone(c.Request().Context(), userID, recordID, actual, body.Notes)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	userID, recordID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.svc.UpdateStatus(c.Request().Context(), userID, recordID, body.Status, body.Notes)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ReportInline(c echo.Context) error {
	userID, recordID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var in SideEffectInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rec, err := h.inline.Report(c.Request().Context(), userID, recordID, in)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ReportDetailed(c echo.Context) error {
	userID, recordID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var in SideEffectInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rep, err := h.tracker.Report(c.Request().Context(), userID, recordID, in)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *Handler) ListDetailedReports(c echo.Context) error {
	userID, recordID, err := bindIDs(c)
	if err != nil {
		return err
	}
	reports, err := h.tracker.ListReports(c.Request().Context(), userID, recordID)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"reports": reports, "count": len(reports)})
}

func (h *Handler) SideEffectStats(c echo.Context) error {
	code := c.QueryParam("vaccine_code")
	if code == "" {
		return apperr.JSON(c, apperr.Validation("missing_vaccine_code", "vaccine_code query parameter is required"))
	}
	stats, err := h.tracker.GetStatistics(c.Request().Context(), code)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) PrivateOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, h.wizard.Options())
}

func (h *Handler) ValidatePrivate(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var in AdditionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	res, err := h.wizard.ValidateAddition(c.Request().Context(), userID, childID, in)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) AddPrivate(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	var in AdditionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	records, err := h.wizard.AddToSchedule(c.Request().Context(), userID, childID, in)
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"records": records, "count": len(records)})
}

func (h *Handler) RemovePrivateSeries(c echo.Context) error {
	userID, childID, err := bindIDs(c)
	if err != nil {
		return err
	}
	n, err := h.wizard.RemoveSeries(c.Request().Context(), userID, childID, c.Param("base"))
	if err != nil {
		return apperr.JSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": n})
}
