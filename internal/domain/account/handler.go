package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/rxdesk/rxdesk/internal/platform/forms"
	"github.com/rxdesk/rxdesk/internal/platform/session"
)

type Handler struct {
	svc    *Service
	logger zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// RegisterRoutes wires the account routes. loggedIn and confirmed are the
// session gates; /login, /register and /users stay open.
func (h *Handler) RegisterRoutes(e *echo.Echo, loggedIn, confirmed echo.MiddlewareFunc) {
	e.GET("/login", h.LoginPage)
	e.POST("/login", h.Login)
	e.GET("/logout", h.Logout)
	e.GET("/register", h.RegisterPage)
	e.POST("/register", h.Register)
	e.GET("/users", h.UsernameAvailability)

	e.GET("/account", h.Account, loggedIn)
	e.GET("/check", h.CheckPage, loggedIn)
	e.POST("/check", h.Check, loggedIn)
	e.GET("/password", h.PasswordPage, loggedIn, confirmed)
	e.POST("/password", h.ChangePassword, loggedIn, confirmed)
	e.GET("/change", h.ChangePage, loggedIn, confirmed)
	e.POST("/change", h.ChangeProfiles, loggedIn, confirmed)
	e.GET("/about", h.About, loggedIn)
}

// respond renders a JSON page: the payload plus any queued flash messages.
func respond(c echo.Context, status int, data echo.Map) error {
	if data == nil {
		data = echo.Map{}
	}
	if sess := session.FromContext(c); sess != nil {
		data["flashes"] = sess.PopFlashes()
	}
	return c.JSON(status, data)
}

func (h *Handler) LoginPage(c echo.Context) error {
	// Viewing the login page forgets any previous identity.
	session.FromContext(c).Clear()
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) Login(c echo.Context) error {
	sess := session.FromContext(c)
	sess.Clear()

	username := forms.Clean(c.FormValue("username"))
	password := c.FormValue("password")

	u, err := h.svc.Authenticate(c.Request().Context(), username, password)
	switch {
	case errors.Is(err, ErrMissingUsername):
		sess.Flash("danger", "Missing username!")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrMissingPassword):
		sess.Flash("danger", "Missing password!")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrInvalidCredentials):
		sess.Flash("danger", "Invalid username and/or password")
		return respond(c, http.StatusOK, nil)
	case err != nil:
		h.logger.Error().Err(err).Msg("login failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	// A fresh token so a pre-login cookie never names this session.
	sess.Rotate(session.NewToken())
	sess.SetUserID(u.ID)
	sess.Flash("success", "logged in!")
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) Logout(c echo.Context) error {
	sess := session.FromContext(c)
	sess.Clear()
	sess.Flash("info", "logged out!")
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h *Handler) RegisterPage(c echo.Context) error {
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) Register(c echo.Context) error {
	sess := session.FromContext(c)

	in := RegisterInput{
		Username:     forms.Clean(c.FormValue("username")),
		Password:     c.FormValue("password"),
		Confirmation: c.FormValue("confirmation"),
		Doctor: DoctorProfile{
			Name:          forms.Clean(c.FormValue("doctor-name")),
			Qualification: forms.Clean(c.FormValue("qualification")),
			Department:    forms.Clean(c.FormValue("department")),
			Registration:  forms.Clean(c.FormValue("registration")),
		},
		Clinic: ClinicProfile{
			Name:    forms.Clean(c.FormValue("clinic-name")),
			Address: forms.Clean(c.FormValue("address")),
			Contact: forms.Clean(c.FormValue("contact")),
			Email:   forms.Clean(c.FormValue("email")),
		},
	}

	_, err := h.svc.Register(c.Request().Context(), in)
	switch {
	case errors.Is(err, ErrMissingUsername):
		sess.Flash("danger", "Missing username")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrMissingPassword):
		sess.Flash("danger", "Missing password!")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrPasswordMismatch):
		sess.Flash("danger", "Passwords don't match for both inputs!")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrUsernameTaken):
		sess.Flash("danger", "Username already exists!")
		return respond(c, http.StatusOK, nil)
	case err != nil:
		h.logger.Error().Err(err).Msg("user registration failed")
		sess.Flash("danger", "Sorry, registration failed. Please try again/later.")
		return respond(c, http.StatusOK, nil)
	}

	sess.Flash("success", "Registered successfully!")
	return c.Redirect(http.StatusSeeOther, "/login")
}

// UsernameAvailability backs the live availability check on the registration
// form. An empty msg means the name is free.
func (h *Handler) UsernameAvailability(c echo.Context) error {
	name := c.QueryParam("name")
	taken, err := h.svc.UsernameTaken(c.Request().Context(), name)
	if err != nil {
		h.logger.Error().Err(err).Msg("username check failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "username check failed")
	}
	msg := ""
	if taken {
		msg = "This Username is already taken"
	}
	return c.JSON(http.StatusOK, echo.Map{"msg": msg})
}

func (h *Handler) Account(c echo.Context) error {
	sess := session.FromContext(c)
	// Entering the account area always demands a fresh password check.
	sess.SetConfirmed(false)

	userID, _ := sess.UserID()
	u, err := h.svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("load account failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "load account failed")
	}
	return respond(c, http.StatusOK, echo.Map{
		"user": echo.Map{"id": u.ID, "username": u.Username},
	})
}

func (h *Handler) CheckPage(c echo.Context) error {
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) Check(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	err := h.svc.VerifyPassword(c.Request().Context(), userID, c.FormValue("password"))
	if errors.Is(err, ErrInvalidCredentials) {
		sess.Flash("danger", "Invalid password, please try again.")
		return respond(c, http.StatusOK, nil)
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("password check failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "password check failed")
	}

	sess.SetConfirmed(true)
	return c.Redirect(http.StatusSeeOther, sess.PopReturnPath("/"))
}

func (h *Handler) PasswordPage(c echo.Context) error {
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) ChangePassword(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	err := h.svc.ChangePassword(c.Request().Context(), userID,
		c.FormValue("password"), c.FormValue("confirmation"))
	switch {
	case errors.Is(err, ErrMissingPassword):
		sess.Flash("danger", "Missing password!")
		return respond(c, http.StatusOK, nil)
	case errors.Is(err, ErrPasswordMismatch):
		sess.Flash("danger", "Passwords don't match for both inputs!")
		return respond(c, http.StatusOK, nil)
	case err != nil:
		h.logger.Error().Err(err).Msg("password change failed")
		sess.Flash("danger", "Password change failed, Please try again/later")
		return c.Redirect(http.StatusSeeOther, "/account")
	}

	// Force re-login with the new password.
	sess.Flash("success", "Password Changed Successfully!")
	return c.Redirect(http.StatusSeeOther, "/logout")
}

func (h *Handler) ChangePage(c echo.Context) error {
	return respond(c, http.StatusOK, nil)
}

func (h *Handler) ChangeProfiles(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	d := DoctorProfile{
		Name:          forms.Clean(c.FormValue("doctor-name")),
		Qualification: forms.Clean(c.FormValue("qualification")),
		Department:    forms.Clean(c.FormValue("department")),
		Registration:  forms.Clean(c.FormValue("registration")),
	}
	cl := ClinicProfile{
		Name:    forms.Clean(c.FormValue("clinic-name")),
		Address: forms.Clean(c.FormValue("address")),
		Contact: forms.Clean(c.FormValue("contact")),
		Email:   forms.Clean(c.FormValue("email")),
	}

	if err := h.svc.UpdateProfiles(c.Request().Context(), userID, d, cl); err != nil {
		h.logger.Error().Err(err).Msg("profile change failed")
		sess.Flash("danger", "Account Information change failed, Please try again/later")
		return c.Redirect(http.StatusSeeOther, "/account")
	}

	// The home page must resend at least the account bundle.
	sess.RewindAccount()
	sess.Flash("success", "User Information Changed!")
	return c.Redirect(http.StatusSeeOther, "/account")
}

func (h *Handler) About(c echo.Context) error {
	sess := session.FromContext(c)
	userID, _ := sess.UserID()

	u, err := h.svc.GetUser(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("load user failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "load user failed")
	}
	sess.Flash("success", "Welcome "+u.Username+"!")
	return respond(c, http.StatusOK, echo.Map{"username": u.Username})
}
