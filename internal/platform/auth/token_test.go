package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var testCfg = JWTConfig{
	SigningKey: []byte("test-signing-key-0123456789abcdef"),
	Issuer:     "hms-test",
}

func TestIssueTokenRequiresSigningKey(t *testing.T) {
	if _, err := IssueToken(JWTConfig{}, "u1", "User", nil, time.Hour); err == nil {
		t.Error("expected error without signing key")
	}
}

func doRequest(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	handler := mw(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, captured
}

func TestJWTMiddlewareRoundTrip(t *testing.T) {
	token, err := IssueToken(testCfg, "user-1", "Dr. Rao", []string{"doctor"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	rec, captured := doRequest(t, JWTMiddleware(testCfg), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	ctx := captured.Request().Context()
	if got := UserIDFromContext(ctx); got != "user-1" {
		t.Errorf("user id = %s, want user-1", got)
	}
	if got := UserNameFromContext(ctx); got != "Dr. Rao" {
		t.Errorf("user name = %s, want Dr. Rao", got)
	}
	roles := RolesFromContext(ctx)
	if len(roles) != 1 || roles[0] != "doctor" {
		t.Errorf("roles = %v, want [doctor]", roles)
	}
}

func TestJWTMiddlewareRejections(t *testing.T) {
	expired, err := IssueToken(testCfg, "user-1", "X", nil, -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	otherKey, err := IssueToken(JWTConfig{SigningKey: []byte("another-key-entirely-0123456789ab"), Issuer: "hms-test"}, "user-1", "X", nil, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	wrongIssuer, err := IssueToken(JWTConfig{SigningKey: testCfg.SigningKey, Issuer: "someone-else"}, "user-1", "X", nil, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Token abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signing key", "Bearer " + otherKey},
		{"wrong issuer", "Bearer " + wrongIssuer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := doRequest(t, JWTMiddleware(testCfg), tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestDevAuthMiddlewareGrantsAdmin(t *testing.T) {
	rec, captured := doRequest(t, DevAuthMiddleware(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	roles := RolesFromContext(captured.Request().Context())
	if len(roles) != 1 || roles[0] != "admin" {
		t.Errorf("roles = %v, want [admin]", roles)
	}
}

func roleRequest(t *testing.T, userRoles []string, required ...string) int {
	t.Helper()
	token, err := IssueToken(testCfg, "user-1", "X", userRoles, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bills", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(testCfg)(RequireRole(required...)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}))
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name      string
		userRoles []string
		required  []string
		want      int
	}{
		{"exact role", []string{"billing"}, []string{"billing"}, http.StatusOK},
		{"one of several", []string{"nurse"}, []string{"doctor", "nurse"}, http.StatusOK},
		{"admin passes everything", []string{"admin"}, []string{"pharmacist"}, http.StatusOK},
		{"missing role", []string{"receptionist"}, []string{"billing"}, http.StatusForbidden},
		{"no roles at all", nil, []string{"billing"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := roleRequest(t, tt.userRoles, tt.required...); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}
