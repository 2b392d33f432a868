package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func newManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, "rxdesk_session", time.Hour, zerolog.Nop()), store
}

func serve(t *testing.T, m *Manager, handler echo.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := m.Middleware()(handler)(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestMiddleware_IssuesCookieForNewSession(t *testing.T) {
	m, store := newManager()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := serve(t, m, func(c echo.Context) error {
		if FromContext(c) == nil {
			t.Fatal("expected a session in context")
		}
		return c.NoContent(http.StatusOK)
	}, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "rxdesk_session" {
		t.Fatalf("expected a session cookie, got %+v", cookies)
	}
	if _, err := store.Load(context.Background(), cookies[0].Value); err != nil {
		t.Errorf("expected new session persisted: %v", err)
	}
}

func TestMiddleware_RestoresExistingSession(t *testing.T) {
	m, store := newManager()
	uid := int64(9)
	if err := store.Save(context.Background(), "tok-1", State{UserID: &uid}, time.Hour); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "rxdesk_session", Value: "tok-1"})
	rec := serve(t, m, func(c echo.Context) error {
		id, ok := FromContext(c).UserID()
		if !ok || id != 9 {
			t.Errorf("expected user 9 restored, got %d ok=%v", id, ok)
		}
		return c.NoContent(http.StatusOK)
	}, req)

	if len(rec.Result().Cookies()) != 0 {
		t.Error("restoring an existing session should not reissue the cookie")
	}
}

func TestMiddleware_UnknownTokenGetsFreshSession(t *testing.T) {
	m, _ := newManager()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "rxdesk_session", Value: "stale"})
	rec := serve(t, m, func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatal("expected a replacement cookie")
	}
	if cookies[0].Value == "stale" {
		t.Error("stale token must not be reused")
	}
}

func TestMiddleware_RotationDeletesOldToken(t *testing.T) {
	m, store := newManager()
	if err := store.Save(context.Background(), "pre-login", State{}, time.Hour); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "rxdesk_session", Value: "pre-login"})
	rec := serve(t, m, func(c echo.Context) error {
		sess := FromContext(c)
		sess.Rotate(NewToken())
		sess.SetUserID(1)
		return c.NoContent(http.StatusOK)
	}, req)

	if _, err := store.Load(context.Background(), "pre-login"); err != ErrNoSession {
		t.Error("old token should be deleted after rotation")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatal("expected the rotated cookie to be set")
	}
	st, err := store.Load(context.Background(), cookies[0].Value)
	if err != nil {
		t.Fatalf("rotated session not persisted: %v", err)
	}
	if st.UserID == nil || *st.UserID != 1 {
		t.Errorf("expected user 1 in rotated session, got %+v", st.UserID)
	}
}

func TestRequireLogin_RedirectsAnonymous(t *testing.T) {
	m, _ := newManager()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := m.Middleware()(RequireLogin()(func(c echo.Context) error {
		t.Fatal("handler must not run for anonymous users")
		return nil
	}))
	if err := chain(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Errorf("expected 303 to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestRequireConfirmed_StoresReturnPath(t *testing.T) {
	m, store := newManager()
	uid := int64(3)
	if err := store.Save(context.Background(), "tok", State{UserID: &uid}, time.Hour); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/password", nil)
	req.AddCookie(&http.Cookie{Name: "rxdesk_session", Value: "tok"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	chain := m.Middleware()(RequireLogin()(RequireConfirmed()(func(c echo.Context) error {
		t.Fatal("handler must not run without confirmation")
		return nil
	})))
	if err := chain(c); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/check" {
		t.Errorf("expected 303 to /check, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	st, err := store.Load(context.Background(), "tok")
	if err != nil {
		t.Fatal(err)
	}
	if st.ReturnPath != "/password" {
		t.Errorf("expected return path saved, got %q", st.ReturnPath)
	}
}

func TestRequireConfirmed_PassesWhenConfirmed(t *testing.T) {
	m, store := newManager()
	uid := int64(3)
	if err := store.Save(context.Background(), "tok", State{UserID: &uid, Confirmed: true}, time.Hour); err != nil {
		t.Fatal(err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/password", nil)
	req.AddCookie(&http.Cookie{Name: "rxdesk_session", Value: "tok"})
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ran := false
	chain := m.Middleware()(RequireLogin()(RequireConfirmed()(func(c echo.Context) error {
		ran = true
		return c.NoContent(http.StatusOK)
	})))
	if err := chain(c); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Error("confirmed user should reach the handler")
	}
}
