package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type locationContextKey struct{}

// TimezoneHeader lets a caller name its IANA zone explicitly.
const TimezoneHeader = "X-Timezone"

// LocationLookup resolves the time zone of an IP address.
// *geoip.Resolver satisfies it.
type LocationLookup interface {
	Location(ip string) (*time.Location, error)
}

// ReferenceClock attaches the caller's reference time zone to the request
// context. "Today" for an activity is computed in this zone.
func ReferenceClock(lookup LocationLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := ResolveLocation(r, lookup)
			ctx := context.WithValue(r.Context(), locationContextKey{}, loc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ResolveLocation prefers an explicit X-Timezone header, then the geoip zone
// of the client address, then UTC.
func ResolveLocation(r *http.Request, lookup LocationLookup) *time.Location {
	if r == nil {
		return time.UTC
	}
	if name := strings.TrimSpace(r.Header.Get(TimezoneHeader)); name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if loc, err := lookup.Location(ip); err == nil && loc != nil {
				return loc
			}
		}
	}
	return time.UTC
}

// LocationFromContext returns the reference zone, UTC when none was attached.
func LocationFromContext(ctx context.Context) *time.Location {
	if v, ok := ctx.Value(locationContextKey{}).(*time.Location); ok && v != nil {
		return v
	}
	return time.UTC
}

// ClientIP returns the first valid X-Forwarded-For entry or the remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if ip == "" {
				continue
			}
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
