package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// ContextKey is where the Manager parks the request's session in the echo
// context.
const ContextKey = "session"

// Manager loads the session named by the request cookie, exposes it to
// handlers, and writes it back after the handler runs.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
	logger     zerolog.Logger
}

func NewManager(store Store, cookieName string, ttl time.Duration, logger zerolog.Logger) *Manager {
	return &Manager{
		store:      store,
		cookieName: cookieName,
		ttl:        ttl,
		logger:     logger,
	}
}

// NewToken returns a fresh opaque session token.
func NewToken() string {
	return uuid.NewString()
}

// Middleware attaches a session to every request. A missing, expired, or
// unknown cookie silently gets a brand-new anonymous session.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			var sess *Session
			if cookie, err := c.Cookie(m.cookieName); err == nil && cookie.Value != "" {
				if st, err := m.store.Load(ctx, cookie.Value); err == nil {
					sess = restore(cookie.Value, st)
				}
			}
			if sess == nil {
				sess = New(NewToken())
			}
			c.Set(ContextKey, sess)

			err := next(c)

			if sess.oldToken != "" && sess.oldToken != sess.token {
				if derr := m.store.Delete(ctx, sess.oldToken); derr != nil {
					m.logger.Error().Err(derr).Msg("delete rotated session")
				}
			}
			if sess.dirty {
				if serr := m.store.Save(ctx, sess.token, sess.state, m.ttl); serr != nil {
					m.logger.Error().Err(serr).Msg("save session")
				}
			}
			if sess.fresh || sess.oldToken != "" {
				c.SetCookie(&http.Cookie{
					Name:     m.cookieName,
					Value:    sess.token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					Expires:  time.Now().Add(m.ttl),
				})
			}

			return err
		}
	}
}

// FromContext returns the request's session. Handlers behind the Manager
// middleware can rely on it being present.
func FromContext(c echo.Context) *Session {
	sess, _ := c.Get(ContextKey).(*Session)
	return sess
}

// RequireLogin redirects to /login when the session carries no user identity.
// The wrapped operation is not performed; an anonymous visitor is not an error.
func RequireLogin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := FromContext(c)
			if sess == nil {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			if _, ok := sess.UserID(); !ok {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			return next(c)
		}
	}
}

// RequireConfirmed is the confirm-then-act gate for sensitive account
// mutations. Without a fresh password confirmation it stores the requested
// path and redirects to /check; after a successful re-entry the original path
// is replayed. Apply after RequireLogin.
func RequireConfirmed() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := FromContext(c)
			if sess == nil {
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			if !sess.Confirmed() {
				sess.SetReturnPath(c.Request().URL.Path)
				return c.Redirect(http.StatusSeeOther, "/check")
			}
			return next(c)
		}
	}
}
