package livestock

import (
	"fmt"
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// NotSpecified is shown when an animal has no birth date.
const NotSpecified = "Not specified"

// AgeMonths returns whole months elapsed since birth, never negative.
func AgeMonths(birth, today time.Time) int {
	b, t := Day(birth), Day(today)
	months := (t.Year()-b.Year())*12 + int(t.Month()-b.Month())
	if t.Day() < b.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// AgeLabel formats the age as "Y years M months", or "M months" under a year.
func AgeLabel(birth *time.Time, today time.Time) string {
	if birth == nil || birth.IsZero() {
		return NotSpecified
	}
	months := AgeMonths(*birth, today)
	years, rest := months/12, months%12
	if years == 0 {
		return plural(rest, "month")
	}
	if rest == 0 {
		return plural(years, "year")
	}
	return plural(years, "year") + " " + plural(rest, "month")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// HealthScore maps the health qualifier to a 0-100 display number.
func HealthScore(h models.HealthStatus) int {
	switch h {
	case models.HealthGood:
		return 95
	case models.HealthMedium:
		return 60
	case models.HealthBad:
		return 25
	default:
		return 0
	}
}

// StatusColor is the badge color of an animal status.
func StatusColor(s models.AnimalStatus) string {
	switch s {
	case models.StatusActive:
		return "green"
	case models.StatusSick:
		return "red"
	case models.StatusPregnant:
		return "pink"
	case models.StatusNursing:
		return "blue"
	case models.StatusSold:
		return "gray"
	case models.StatusDeceased:
		return "black"
	default:
		return "gray"
	}
}
