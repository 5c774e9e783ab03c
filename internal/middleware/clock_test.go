package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type lookupFunc func(ip string) (*time.Location, error)

func (f lookupFunc) Location(ip string) (*time.Location, error) { return f(ip) }

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("zone %s unavailable: %v", name, err)
	}
	return loc
}

func TestResolveLocation(t *testing.T) {
	chicago := mustZone(t, "America/Chicago")
	tokyo := mustZone(t, "Asia/Tokyo")

	tests := []struct {
		name   string
		header string
		lookup LocationLookup
		want   string
	}{
		{
			name:   "header wins over lookup",
			header: "America/Chicago",
			lookup: lookupFunc(func(string) (*time.Location, error) { return tokyo, nil }),
			want:   chicago.String(),
		},
		{
			name:   "bad header falls through to lookup",
			header: "Mars/Olympus",
			lookup: lookupFunc(func(ip string) (*time.Location, error) {
				if ip != "203.0.113.4" {
					t.Fatalf("unexpected ip: %s", ip)
				}
				return tokyo, nil
			}),
			want: tokyo.String(),
		},
		{
			name:   "lookup error yields utc",
			lookup: lookupFunc(func(string) (*time.Location, error) { return nil, errors.New("no record") }),
			want:   "UTC",
		},
		{
			name: "nothing known yields utc",
			want: "UTC",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = "203.0.113.4:80"
			if tc.header != "" {
				req.Header.Set(TimezoneHeader, tc.header)
			}
			if got := ResolveLocation(req, tc.lookup); got.String() != tc.want {
				t.Fatalf("ResolveLocation() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestReferenceClockAttachesLocation(t *testing.T) {
	chicago := mustZone(t, "America/Chicago")
	var got *time.Location
	h := ReferenceClock(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = LocationFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(TimezoneHeader, "America/Chicago")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if got.String() != chicago.String() {
		t.Fatalf("LocationFromContext() = %v, want %v", got, chicago)
	}
}

func TestLocationFromContextDefault(t *testing.T) {
	if got := LocationFromContext(context.Background()); got != time.UTC {
		t.Fatalf("LocationFromContext() default = %v, want UTC", got)
	}
}
