package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRecoveryConvertsPanicTo500(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := Recovery(zerolog.Nop())(func(echo.Context) error {
		panic("boom")
	})
	err := handler(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 HTTPError", err)
	}
}

func TestRequestIDAssignsAndEchoesHeader(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}

	rid := requestIDFrom(c)
	if rid == "" {
		t.Fatal("request id not set")
	}
	if got := rec.Header().Get(requestIDHeader); got != rid {
		t.Errorf("response header = %q, want %q", got, rid)
	}
}

func TestRequestIDKeepsClientValue(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-rid")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequestID()(func(c echo.Context) error { return nil })
	if err := handler(c); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := requestIDFrom(c); got != "client-rid" {
		t.Errorf("request id = %q, want client-rid", got)
	}
}

func TestRequestIDFromUnsetContext(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if got := requestIDFrom(c); got != "" {
		t.Errorf("request id = %q, want empty", got)
	}
}
