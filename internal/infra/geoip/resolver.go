// Package geoip resolves a caller's time zone from their IP address so that
// "today" can be computed in the caller's reference clock.
package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// LocationResolver resolves IANA time zones from IP addresses.
type LocationResolver interface {
	Location(ip string) (*time.Location, error)
}

// Resolver provides time zone lookups backed by a MaxMind GeoIP2/GeoLite2 City database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the GeoIP database at the given path. When the path is empty, nil is returned.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Location returns the time zone recorded for ip. An IP without a zone yields
// (nil, nil) and callers fall back to UTC.
func (r *Resolver) Location(ip string) (*time.Location, error) {
	if r == nil || r.reader == nil {
		return nil, ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return nil, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.City(parsed)
	if err != nil {
		return nil, fmt.Errorf("geoip: lookup city: %w", err)
	}
	if record == nil || record.Location.TimeZone == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(record.Location.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("geoip: load zone %q: %w", record.Location.TimeZone, err)
	}
	return loc, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
