package prescription

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rxdesk/rxdesk/internal/domain/account"
	"github.com/rxdesk/rxdesk/internal/domain/search"
	"github.com/rxdesk/rxdesk/internal/platform/db"
	"github.com/rxdesk/rxdesk/internal/platform/forms"
	"github.com/rxdesk/rxdesk/internal/platform/session"
)

type Handler struct {
	svc      *Service
	accounts *account.Service
	search   *search.Service
	logger   zerolog.Logger
}

func NewHandler(svc *Service, accounts *account.Service, searchSvc *search.Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, accounts: accounts, search: searchSvc, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, loggedIn echo.MiddlewareFunc) {
	e.GET("/", h.Home, loggedIn)
	e.POST("/", h.Create, loggedIn)
	e.GET("/refresh", h.Refresh, loggedIn)
	e.GET("/view", h.View, loggedIn)
	e.GET("/edit", h.EditPage, loggedIn)
	e.POST("/edit", h.Edit, loggedIn)
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

// Home serves the prescription form page. What it preloads depends on the
// session's intake stage: the full reference bundle on the first view, the
// account bundle on the view after that, nothing once both have been sent.
func (h *Handler) Home(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()
	ctx := c.Request().Context()

	if !sess.Greeted() {
		u, err := h.accounts.GetUser(ctx, userID)
		if err != nil {
			h.logger.Error().Err(err).Int64("user_id", userID).Msg("load user failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "load user failed")
		}
		sess.Flash("primary", "Welcome "+u.Username+", Fill out the patient and prescription fields to create a new prescription.")
		sess.SetGreeted(true)
	}

	switch stage := sess.Stage(); stage {
	case session.StageBundlePending, session.StageBundleOnly:
		doctor, clinic, err := h.accounts.Profiles(ctx, userID)
		if err != nil {
			h.logger.Error().Err(err).Msg("load profiles failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "load profiles failed")
		}
		medData, err := h.search.SuggestionIndex(ctx, userID)
		if err != nil {
			h.logger.Error().Err(err).Msg("build suggestion index failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "load medication data failed")
		}
		if stage == session.StageBundlePending {
			sess.SetStage(session.StageAccountPending)
		} else {
			sess.SetStage(session.StageComplete)
		}
		return respond(c, http.StatusOK, echo.Map{
			"doctor":   doctor,
			"clinic":   clinic,
			"med_data": medData,
		})

	case session.StageAccountPending:
		doctor, clinic, err := h.accounts.Profiles(ctx, userID)
		if err != nil {
			h.logger.Error().Err(err).Msg("load profiles failed")
			return echo.NewHTTPError(http.StatusInternalServerError, "load profiles failed")
		}
		sess.SetStage(session.StageComplete)
		return respond(c, http.StatusOK, echo.Map{
			"doctor": doctor,
			"clinic": clinic,
		})

	default:
		return respond(c, http.StatusOK, nil)
	}
}

func (h *Handler) Create(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	draft, err := draftFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}

	id, err := h.svc.Create(c.Request().Context(), userID, draft)
	switch {
	case errors.Is(err, ErrMissingPatientName):
		sess.Flash("danger", "Missing patient name!")
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, db.ErrDuplicate):
		sess.Flash("danger", "This prescription ID is already being used.")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, db.ErrLockTimeout):
		sess.Flash("danger", "Another user is editing this prescription. Please try again.")
		return respond(c, http.StatusOK, nil)
	case err != nil:
		h.logger.Error().Err(err).Msg("prescription insert failed")
		sess.Flash("danger", "An unexpected error occurred while saving.")
		return respond(c, http.StatusOK, nil)
	}

	sess.Flash("success", "Prescription saved successfully.")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view?id=%d", id))
}

// Refresh forces the next home page load to resend the full reference bundle.
func (h *Handler) Refresh(c echo.Context) error {
	session.FromContext(c).RewindBundle()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) View(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		sess.Flash("danger", "Invalid prescription ID!")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	doc, err := h.svc.Get(c.Request().Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		sess.Flash("danger", "Sorry, you can't access this Id or it doesn't exists!")
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("prescription_id", id).Msg("load prescription failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "load prescription failed")
	}

	sess.Flash("primary", "Review of patient's prescription details and diagnosis below.")
	return respond(c, http.StatusOK, echo.Map{
		"prescription": doc.Prescription,
		"patient":      doc.Patient,
		"vitals":       doc.Vitals,
		"medications":  doc.Medications,
	})
}

// EditPage returns the same document as View for form pre-population.
func (h *Handler) EditPage(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		sess.Flash("danger", "Invalid prescription ID!")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	doc, err := h.svc.Get(c.Request().Context(), userID, id)
	if errors.Is(err, ErrNotFound) {
		sess.Flash("danger", "Sorry, you can't access this Id or it doesn't exists!")
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if err != nil {
		h.logger.Error().Err(err).Int64("prescription_id", id).Msg("load prescription failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "load prescription failed")
	}

	return respond(c, http.StatusOK, echo.Map{
		"prescription": doc.Prescription,
		"patient":      doc.Patient,
		"vitals":       doc.Vitals,
		"medications":  doc.Medications,
	})
}

func (h *Handler) Edit(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	id, err := strconv.ParseInt(c.QueryParam("id"), 10, 64)
	if err != nil {
		sess.Flash("danger", "Invalid prescription ID!")
		return c.Redirect(http.StatusSeeOther, "/")
	}

	draft, err := draftFromForm(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form")
	}

	err = h.svc.Update(c.Request().Context(), userID, id, draft)
	switch {
	case errors.Is(err, ErrNotFound):
		sess.Flash("danger", "Sorry, you can't access this Id or it doesn't exists!")
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.Is(err, db.ErrLockTimeout):
		sess.Flash("danger", "Another user is editing this prescription. Please try again.")
		return respond(c, http.StatusOK, nil)
	case err != nil:
		h.logger.Error().Err(err).Int64("prescription_id", id).Msg("prescription update failed")
		sess.Flash("danger", "An unexpected error occurred while saving.")
		return respond(c, http.StatusOK, nil)
	}

	sess.Flash("success", "Prescription updated successfully!")
	return c.Redirect(http.StatusSeeOther, fmt.Sprintf("/view?id=%d", id))
}

// draftFromForm collects the scalar fields and the parallel medication arrays.
// Row i of the arrays becomes line i of the draft; the arrays are zipped to
// the length of med_name[].
func draftFromForm(c echo.Context) (Draft, error) {
	params, err := c.FormParams()
	if err != nil {
		return Draft{}, err
	}

	d := Draft{
		Day:   c.FormValue("day"),
		Month: c.FormValue("month"),
		Year:  c.FormValue("year"),
		Patient: Patient{
			Name: forms.Clean(c.FormValue("patient-name")),
			Age:  forms.Clean(c.FormValue("age")),
			Sex:  forms.Clean(c.FormValue("sex")),
		},
		Vitals: Vitals{
			ChiefComplaints: forms.Clean(c.FormValue("chief-complaints")),
			OnExamination:   forms.Clean(c.FormValue("on-examination")),
			TestAdvised:     forms.Clean(c.FormValue("test-advised")),
			Diagnosis:       forms.Clean(c.FormValue("diagnosis")),
		},
	}

	names := params["med_name[]"]
	doses := params["dose[]"]
	formVals := params["form[]"]
	schedules := params["schedule[]"]
	timings := params["timing[]"]
	durations := params["duration[]"]

	at := func(vals []string, i int) string {
		if i < len(vals) {
			return forms.Clean(vals[i])
		}
		return ""
	}

	for i := range names {
		d.Lines = append(d.Lines, LineInput{
			MedName:  forms.Clean(names[i]),
			Dose:     at(doses, i),
			Form:     at(formVals, i),
			Schedule: at(schedules, i),
			Timing:   at(timings, i),
			Duration: at(durations, i),
		})
	}
	return d, nil
}
