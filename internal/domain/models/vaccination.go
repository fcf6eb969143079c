package models

import "time"

// VaccinationStatus is the persisted state of a vaccination. Overdue is derived on read.
type VaccinationStatus string

const (
	VaccinationPending   VaccinationStatus = "pending"
	VaccinationCompleted VaccinationStatus = "completed"
)

// Vaccination is a scheduled vaccine administration for one animal or a group.
type Vaccination struct {
	ID             string            `bson:"id" json:"id"`
	VaccineName    string            `bson:"vaccine_name" json:"vaccine_name"`
	Target         string            `bson:"target" json:"target"`
	AnimalID       string            `bson:"animal_id,omitempty" json:"animal_id,omitempty"`
	ScheduledDate  time.Time         `bson:"scheduled_date" json:"scheduled_date"`
	CompletedDate  *time.Time        `bson:"completed_date,omitempty" json:"completed_date,omitempty"`
	Status         VaccinationStatus `bson:"status" json:"status"`
	CompletedCount *int              `bson:"completed_count,omitempty" json:"completed_count,omitempty"`
	Notes          string            `bson:"notes" json:"notes"`
	CreatedAt      time.Time         `bson:"created_at" json:"created_at"`
}

func (v *Vaccination) EntityID() string { return v.ID }

func (v *Vaccination) Identify(id string, at time.Time) {
	v.ID = id
	v.CreatedAt = at
	if v.Status == "" {
		v.Status = VaccinationPending
	}
}

func (v *Vaccination) Touch(time.Time) {}
