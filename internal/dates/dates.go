// Package dates implements the booking-date policy: parsing day/month/year
// captures into a calendar date and validating it against the booking
// window. Dates are date-only values pinned to midnight UTC.
package dates

import (
	"errors"
	"strconv"
	"time"
)

var (
	ErrInvalid = errors.New("invalid date")
	// ErrPast: requested date is before today.
	ErrPast = errors.New("date in the past")
	// ErrTooFar: requested date is beyond the booking horizon.
	ErrTooFar = errors.New("date beyond booking horizon")
)

// Day truncates t to a date-only value at midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseBooking builds a date from the BOOK command captures and validates
// it against [today, today+horizonDays]. An empty year defaults to the
// current year; 2-digit years are normalized by adding 2000.
func ParseBooking(dayStr, monthStr, yearStr string, now time.Time, horizonDays int) (time.Time, error) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, ErrInvalid
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return time.Time{}, ErrInvalid
	}

	year := now.Year()
	if yearStr != "" {
		year, err = strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, ErrInvalid
		}
		if year < 100 {
			year += 2000
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, ErrInvalid
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 -> Mar 2); reject that.
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, ErrInvalid
	}

	today := Day(now)
	if date.Before(today) {
		return time.Time{}, ErrPast
	}
	if date.After(today.AddDate(0, 0, horizonDays)) {
		return time.Time{}, ErrTooFar
	}

	return date, nil
}

// Format renders a date the way replies show it, e.g. "25 Dec 2025".
func Format(t time.Time) string {
	return t.Format("2 Jan 2006")
}
