package models

import (
	"fmt"
	"sort"
	"time"
)

// MonthKey identifies one calendar month, formatted "2006-01".
// The sheet's chain calculation depends strictly on month ordering; keys
// compare correctly as strings because of the fixed-width layout.
type MonthKey string

const MonthKeyLayout = "2006-01"

// MonthWindowLength is the fixed size of a sheet's month sequence:
// December of one year through December of the next.
const MonthWindowLength = 13

func NewMonthKey(t time.Time) MonthKey {
	return MonthKey(t.Format(MonthKeyLayout))
}

func (m MonthKey) Time() (time.Time, error) {
	t, err := time.Parse(MonthKeyLayout, string(m))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month key %q: %w", string(m), err)
	}
	return t, nil
}

func (m MonthKey) Valid() bool {
	_, err := m.Time()
	return err == nil
}

// MonthSequence returns the ordered 13-month window starting at start
// (truncated to its month).
func MonthSequence(start time.Time) []MonthKey {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]MonthKey, 0, MonthWindowLength)
	for i := 0; i < MonthWindowLength; i++ {
		months = append(months, NewMonthKey(first.AddDate(0, i, 0)))
	}
	return months
}

// DefaultMonthSequence returns the window December of the previous year
// through December of now's year.
func DefaultMonthSequence(now time.Time) []MonthKey {
	return MonthSequence(time.Date(now.Year()-1, time.December, 1, 0, 0, 0, 0, time.UTC))
}

// SortMonthKeys orders keys chronologically in place.
func SortMonthKeys(keys []MonthKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
