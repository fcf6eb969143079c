package livestock

import (
	"time"

	"github.com/porkyfarm/porcpro/internal/domain/models"
)

// VaccinationState is the display status of a vaccination.
type VaccinationState string

const (
	VaccinationDone      VaccinationState = "completed"
	VaccinationOverdue   VaccinationState = "overdue"
	VaccinationUrgent    VaccinationState = "urgent"
	VaccinationScheduled VaccinationState = "scheduled"
)

// UrgentWithinDays is the horizon under which a pending vaccination is urgent.
const UrgentWithinDays = 3

// VaccinationDisplayStatus derives overdue/urgent/scheduled from the scheduled date.
func VaccinationDisplayStatus(v models.Vaccination, today time.Time) VaccinationState {
	if v.Status == models.VaccinationCompleted {
		return VaccinationDone
	}
	days := DaysBetween(today, v.ScheduledDate)
	switch {
	case days < 0:
		return VaccinationOverdue
	case days <= UrgentWithinDays:
		return VaccinationUrgent
	default:
		return VaccinationScheduled
	}
}
