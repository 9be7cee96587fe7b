// Package period turns drill levels and parent keys into half-open UTC
// intervals and canonical bucket keys. The same key string is used for
// grouping and for display so re-aggregation can never drift.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fleet-analytics-service/internal/model"
)

var (
	ErrInvalidLevel  = errors.New("invalid drill level")
	ErrInvalidParent = errors.New("invalid drill parent")
)

const (
	layoutYear  = "2006"
	layoutMonth = "2006-01"
	layoutDay   = "2006-01-02"
)

// Interval resolves (level, parent) into the window the drill should
// aggregate over:
//
//	year,  ""        -> unbounded, one bucket per year
//	year,  "2024"    -> [2024-01-01, 2025-01-01)
//	month, "2024"    -> [2024-01-01, 2025-01-01), one bucket per month
//	day,   "2024-12" -> [2024-12-01, 2025-01-01), one bucket per day
//
// All boundaries are midnight UTC regardless of deployment timezone.
func Interval(level model.DrillLevel, parent string) (model.PeriodInterval, error) {
	switch level {
	case model.LevelYear:
		if parent == "" {
			return model.PeriodInterval{}, nil
		}
		year, err := parseYear(parent)
		if err != nil {
			return model.PeriodInterval{}, err
		}
		return yearInterval(year), nil
	case model.LevelMonth:
		year, err := parseYear(parent)
		if err != nil {
			return model.PeriodInterval{}, err
		}
		return yearInterval(year), nil
	case model.LevelDay:
		year, month, err := parseYearMonth(parent)
		if err != nil {
			return model.PeriodInterval{}, err
		}
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		// time.Date normalizes month 13 into January of the next year.
		end := time.Date(year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
		return model.PeriodInterval{Start: start, End: end}, nil
	default:
		return model.PeriodInterval{}, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

// BucketKey formats a timestamp at the level's granularity: "YYYY",
// "YYYY-MM" or "YYYY-MM-DD".
func BucketKey(level model.DrillLevel, t time.Time) (string, error) {
	layout, err := keyLayout(level)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(layout), nil
}

// ValidateLevel reports ErrInvalidLevel for anything outside
// year/month/day.
func ValidateLevel(level model.DrillLevel) error {
	_, err := keyLayout(level)
	return err
}

func keyLayout(level model.DrillLevel) (string, error) {
	switch level {
	case model.LevelYear:
		return layoutYear, nil
	case model.LevelMonth:
		return layoutMonth, nil
	case model.LevelDay:
		return layoutDay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}
}

func yearInterval(year int) model.PeriodInterval {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return model.PeriodInterval{Start: start, End: end}
}

func parseYear(parent string) (int, error) {
	if len(parent) != 4 {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidParent, parent)
	}
	year, err := strconv.Atoi(parent)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: year %q", ErrInvalidParent, parent)
	}
	return year, nil
}

func parseYearMonth(parent string) (int, int, error) {
	parts := strings.SplitN(parent, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: year-month %q", ErrInvalidParent, parent)
	}
	year, err := parseYear(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts[1]) != 2 {
		return 0, 0, fmt.Errorf("%w: year-month %q", ErrInvalidParent, parent)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("%w: year-month %q", ErrInvalidParent, parent)
	}
	return year, month, nil
}
