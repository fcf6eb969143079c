package models

import "time"

// GestationStatus is the state of a recorded pregnancy.
type GestationStatus string

const (
	GestationActive    GestationStatus = "active"
	GestationCompleted GestationStatus = "completed"
	GestationFailed    GestationStatus = "failed"
)

// Gestation tracks one pregnancy of a sow.
type Gestation struct {
	ID              string          `bson:"id" json:"id"`
	SowID           string          `bson:"sow_id" json:"sow_id"`
	SowName         string          `bson:"sow_name" json:"sow_name"`
	BoarID          string          `bson:"boar_id,omitempty" json:"boar_id,omitempty"`
	BoarName        string          `bson:"boar_name,omitempty" json:"boar_name,omitempty"`
	BreedingDate    time.Time       `bson:"breeding_date" json:"breeding_date"`
	ExpectedDueDate time.Time       `bson:"expected_due_date" json:"expected_due_date"`
	ActualDate      *time.Time      `bson:"actual_date,omitempty" json:"actual_date,omitempty"`
	Status          GestationStatus `bson:"status" json:"status"`
	PigletCount     *int            `bson:"piglet_count,omitempty" json:"piglet_count,omitempty"`
	PigletsSurvived *int            `bson:"piglets_survived,omitempty" json:"piglets_survived,omitempty"`
	Notes           string          `bson:"notes" json:"notes"`
	CreatedAt       time.Time       `bson:"created_at" json:"created_at"`
}

func (g *Gestation) EntityID() string { return g.ID }

func (g *Gestation) Identify(id string, at time.Time) {
	g.ID = id
	g.CreatedAt = at
	if g.Status == "" {
		g.Status = GestationActive
	}
}

func (g *Gestation) Touch(time.Time) {}
