package model

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDate возвращается, если значение не удаётся привести к дате.
var ErrInvalidDate = errors.New("invalid date")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// ParseDate приводит строку к дате. Поддерживаются RFC 3339, ISO-дата без времени
// и количество миллисекунд с начала эпохи.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}

	return time.Time{}, ErrInvalidDate
}
