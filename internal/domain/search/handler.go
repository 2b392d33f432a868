package search

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rxdesk/rxdesk/internal/platform/forms"
	"github.com/rxdesk/rxdesk/internal/platform/session"
	"github.com/rxdesk/rxdesk/pkg/pagination"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, loggedIn echo.MiddlewareFunc) {
	e.GET("/search", h.SearchPage, loggedIn)
	e.POST("/search", h.Search, loggedIn)
	e.GET("/query", h.Query, loggedIn)
	e.GET("/history", h.History, loggedIn)
}

func respond(c echo.Context, status int, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	if sess := session.FromContext(c); sess != nil {
		data["flashes"] = sess.PopFlashes()
	}
	return c.JSON(status, data)
}

func (h *Handler) SearchPage(c echo.Context) error {
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) Search(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()
	ctx := c.Request().Context()

	// An id short-circuits the filters: jump straight to the prescription.
	if raw := forms.Clean(c.FormValue("id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			owned, perr := h.svc.Probe(ctx, userID, id)
			if perr != nil {
				h.logger.Error().Err(perr).Msg("prescription probe failed")
				return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
			}
			if owned {
				return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view?id=%d", id))
			}
		}
		sess.Flash("danger", "Sorry, you can't access this Id or it doesn't exists!")
		return respond(c, http.StatusOK, nil)
	}

	f := Filters{
		Day:         forms.Clean(c.FormValue("day")),
		Month:       forms.Clean(c.FormValue("month")),
		Year:        forms.Clean(c.FormValue("year")),
		PatientName: forms.Clean(c.FormValue("patient-name")),
		Age:         forms.Clean(c.FormValue("age")),
		Sex:         forms.Clean(c.FormValue("sex")),
		MedName:     forms.Clean(c.FormValue("med_name")),
		Form:        forms.Clean(c.FormValue("form")),
		Dose:        forms.Clean(c.FormValue("dose")),
	}

	results, err := h.svc.Find(ctx, userID, f, pagination.FromContext(c))
	if err != nil {
		h.logger.Error().Err(err).Msg("search failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	sess.Flash("success", "Results!")
	return respond(c, http.StatusOK, echo.Map{"results": results})
}

// Query backs field autocomplete on the search form. Unknown types and empty
// values both produce an empty list.
func (h *Handler) Query(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	field := c.QueryParam("type")
	value := c.QueryParam("value")

	values, err := h.svc.Suggest(c.Request().Context(), userID, field, value)
	if err != nil {
		h.logger.Error().Err(err).Str("field", field).Msg("suggest failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "suggest failed")
	}

	// One single-field object per value, keyed by the requested type.
	out := make([]map[string]string, 0, len(values))
	for _, v := range values {
		out = append(out, map[string]string{field: v})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) History(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	entries, err := h.svc.History(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("load history failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "load history failed")
	}
	return respond(c, http.StatusOK, echo.Map{"history": entries})
}
