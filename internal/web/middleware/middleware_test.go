package middleware_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"winterbot/auth"
	"winterbot/internal/web/middleware"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	am := auth.NewAuthModule("secret")
	r := newRouter(middleware.RequireAuth(am))

	valid, err := am.IssueToken("dashboard", time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	forged, _ := auth.NewAuthModule("other").IssueToken("dashboard", time.Hour)

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"Missing", "", http.StatusUnauthorized, ""},
		{"BearerOnly", "Bearer ", http.StatusUnauthorized, ""},
		{"Garbage", "Bearer nonsense", http.StatusUnauthorized, ""},
		{"WrongSecret", "Bearer " + forged, http.StatusUnauthorized, ""},
		{"Valid", "Bearer " + valid, http.StatusOK, "dashboard"},
		{"ValidWithoutScheme", valid, http.StatusOK, "dashboard"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, w.Code)
			}
			if tc.body != "" && w.Body.String() != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, w.Body.String())
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	r := newRouter(middleware.RequestLogger(logger))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/whoami", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	out := buf.String()
	if !strings.Contains(out, "path=/whoami") || !strings.Contains(out, "status=200") {
		t.Errorf("expected successful request logged, got %q", out)
	}
	if !strings.Contains(out, "WARN") || !strings.Contains(out, "status=404") {
		t.Errorf("expected not found logged as a warning, got %q", out)
	}
}
