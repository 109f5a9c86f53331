package handler

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const dateLayout = "2006-01-02"

var (
	errInvalidPathYear  = errors.New("invalid year")
	errInvalidPathMonth = errors.New("invalid month")
)

// uuidParam parses a path parameter as a UUID
func uuidParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// optionalDate parses a YYYY-MM-DD query value; empty yields nil
func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
