// Package livestock holds the read-time derivations shown next to stored
// records: ages, gestation progress, health scores and vaccination urgency.
// Nothing computed here is persisted.
package livestock

import (
	"math"
	"time"
)

// GestationDays is the fixed sow gestation length used for due-date projection.
const GestationDays = 114

// Band names the stage of a gestation for status badges.
type Band string

const (
	BandEarly     Band = "early"
	BandMid       Band = "mid"
	BandLate      Band = "late"
	BandFarrowing Band = "farrowing"
)

// band thresholds in elapsed days.
const (
	midFrom       = 28
	lateFrom      = 84
	farrowingFrom = 107
)

// Progress is the read-time state of a gestation.
type Progress struct {
	Day       int  `json:"day"`
	Percent   int  `json:"percent"`
	Remaining int  `json:"remaining"`
	Band      Band `json:"band"`
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween counts calendar days from from to to. Negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	return int(math.Round(Day(to).Sub(Day(from)).Hours() / 24))
}

// DueDate projects the farrowing date from the breeding date.
func DueDate(breeding time.Time) time.Time {
	return Day(breeding).AddDate(0, 0, GestationDays)
}

// GestationProgress derives elapsed days, percentage, remaining days and band.
func GestationProgress(breeding, today time.Time) Progress {
	elapsed := DaysBetween(breeding, today)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > GestationDays {
		elapsed = GestationDays
	}
	return Progress{
		Day:       elapsed,
		Percent:   int(math.Round(float64(elapsed) / GestationDays * 100)),
		Remaining: GestationDays - elapsed,
		Band:      bandFor(elapsed),
	}
}

func bandFor(elapsed int) Band {
	switch {
	case elapsed >= farrowingFrom:
		return BandFarrowing
	case elapsed >= lateFrom:
		return BandLate
	case elapsed >= midFrom:
		return BandMid
	default:
		return BandEarly
	}
}
