package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/reflexions/internal/db"
	"golang.org/x/crypto/bcrypt"
)

type stubHTMLRender struct{}

type stubHTMLInstance struct {
	name string
	data interface{}
}

func (r *stubHTMLRender) Instance(name string, data interface{}) render.Render {
	return &stubHTMLInstance{name: name, data: data}
}

func (r *stubHTMLInstance) Render(http.ResponseWriter) error {
	return nil
}

func (r *stubHTMLInstance) WriteContentType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
}

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Helper()

	router := gin.New()
	router.HTMLRender = &stubHTMLRender{}
	router.Use(sessions.Sessions("reflexions_session", cookie.NewStore([]byte("test-secret"))))
	router.POST("/admin/login", Login)
	router.GET("/admin/logout", Logout)

	authed := router.Group("/admin", AuthRequired())
	authed.GET("/secret", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func seedLoginUser(t *testing.T, email, password string) {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.DB.Create(&db.User{ID: "11111111-1111-1111-1111-111111111111", Email: email, Password: string(hashed)}).Error; err != nil {
		t.Fatalf("failed to seed login user: %v", err)
	}
}

func TestLoginSetsSessionAndRedirects(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	seedLoginUser(t, "admin@example.com", "secret-pass")
	router := newAuthRouter(t)

	form := url.Values{"email": {"admin@example.com"}, "password": {"secret-pass"}}
	request := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/admin" {
		t.Fatalf("unexpected redirect target: %s", location)
	}

	// Session cookie from the login grants access to protected routes.
	cookies := recorder.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie to be set")
	}

	protected := httptest.NewRequest(http.MethodGet, "/admin/secret", nil)
	for _, ck := range cookies {
		protected.AddCookie(ck)
	}
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, protected)

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected status 200 for authed request, got %d", recorder.Code)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	seedLoginUser(t, "admin@example.com", "secret-pass")
	router := newAuthRouter(t)

	form := url.Values{"email": {"admin@example.com"}, "password": {"wrong"}}
	request := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", recorder.Code)
	}
}

func TestAuthRequiredRedirectsAnonymous(t *testing.T) {
	_, cleanup := setupTestDB(t)
	defer cleanup()

	router := newAuthRouter(t)

	request := httptest.NewRequest(http.MethodGet, "/admin/secret", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	if recorder.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", recorder.Code)
	}
	if location := recorder.Header().Get("Location"); location != "/admin/login" {
		t.Fatalf("unexpected redirect target: %s", location)
	}
}
