package admin

import (
	"strings"
	"time"

	"counseling/internal/domain"
)

var localLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
}

// ParseLocal reads a wall-clock date-time entered in loc and returns the UTC
// instant. Inputs carrying their own offset (RFC 3339) keep that offset.
func ParseLocal(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || loc == nil {
		return time.Time{}, domain.ErrInvalidDateTime
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, domain.ErrInvalidDateTime
}

// resolveLocation prefers the zone the browser reported and falls back to def.
func resolveLocation(name string, def *time.Location) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.ErrInvalidDateTime
	}
	return loc, nil
}
