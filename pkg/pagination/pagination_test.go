package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/items?"+query, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	return FromContext(c)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=50&offset=10", 50, 10},
		{"limit capped", "limit=1000", MaxLimit, 0},
		{"zero limit falls back", "limit=0", DefaultLimit, 0},
		{"negative values", "limit=-5&offset=-3", DefaultLimit, 0},
		{"non-numeric", "limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := paramsFor(t, tt.query)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d",
					p.Limit, p.Offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestNewResponseHasMore(t *testing.T) {
	tests := []struct {
		total, limit, offset int
		want                 bool
	}{
		{100, 20, 0, true},
		{100, 20, 80, false},
		{10, 20, 0, false},
		{21, 20, 0, true},
	}
	for _, tt := range tests {
		r := NewResponse(nil, tt.total, tt.limit, tt.offset)
		if r.HasMore != tt.want {
			t.Errorf("HasMore(total=%d, limit=%d, offset=%d) = %v, want %v",
				tt.total, tt.limit, tt.offset, r.HasMore, tt.want)
		}
	}
}

func TestPageNavigation(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if !p.HasNext(100) {
		t.Error("HasNext(100) = false")
	}
	if p.HasNext(60) {
		t.Error("HasNext(60) = true")
	}
	if !p.HasPrevious() {
		t.Error("HasPrevious = false")
	}
	if got := p.NextOffset(); got != 60 {
		t.Errorf("NextOffset = %d, want 60", got)
	}
	if got := p.PreviousOffset(); got != 20 {
		t.Errorf("PreviousOffset = %d, want 20", got)
	}

	first := Params{Limit: 20, Offset: 10}
	if got := first.PreviousOffset(); got != 0 {
		t.Errorf("PreviousOffset = %d, want 0 (clamped)", got)
	}
}

func TestSQL(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if got := p.SQL(); got != "LIMIT 20 OFFSET 40" {
		t.Errorf("SQL = %q", got)
	}
}
