package models

import "time"

// AnimalCategory classifies an animal within the herd.
type AnimalCategory string

const (
	CategoryBreedingFemale AnimalCategory = "breeding_female"
	CategoryBreedingMale   AnimalCategory = "breeding_male"
	CategoryPiglet         AnimalCategory = "piglet"
	CategoryFattening      AnimalCategory = "fattening"
)

// AnimalStatus is the lifecycle status of an animal.
type AnimalStatus string

const (
	StatusActive   AnimalStatus = "active"
	StatusSick     AnimalStatus = "sick"
	StatusPregnant AnimalStatus = "pregnant"
	StatusNursing  AnimalStatus = "nursing"
	StatusSold     AnimalStatus = "sold"
	StatusDeceased AnimalStatus = "deceased"
)

// Terminal reports whether no transition leads out of the status.
func (s AnimalStatus) Terminal() bool {
	return s == StatusSold || s == StatusDeceased
}

// HealthStatus is the coarse health qualifier shown next to the status.
type HealthStatus string

const (
	HealthGood   HealthStatus = "good"
	HealthMedium HealthStatus = "medium"
	HealthBad    HealthStatus = "bad"
)

// Animal is one pig in the registry.
type Animal struct {
	ID           string         `bson:"id" json:"id"`
	Name         string         `bson:"name" json:"name"`
	Category     AnimalCategory `bson:"category" json:"category"`
	Breed        string         `bson:"breed" json:"breed"`
	BirthDate    *time.Time     `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Weight       float64        `bson:"weight" json:"weight"`
	Status       AnimalStatus   `bson:"status" json:"status"`
	HealthStatus HealthStatus   `bson:"health_status" json:"health_status"`
	PhotoURL     string         `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	MotherID     string         `bson:"mother_id,omitempty" json:"mother_id,omitempty"`
	FatherID     string         `bson:"father_id,omitempty" json:"father_id,omitempty"`
	Notes        string         `bson:"notes" json:"notes"`
	CreatedAt    time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `bson:"updated_at" json:"updated_at"`
}

func (a *Animal) EntityID() string { return a.ID }

func (a *Animal) Identify(id string, at time.Time) {
	a.ID = id
	a.CreatedAt = at
	a.UpdatedAt = at
	if a.Status == "" {
		a.Status = StatusActive
	}
	if a.HealthStatus == "" {
		a.HealthStatus = HealthGood
	}
}

func (a *Animal) Touch(at time.Time) { a.UpdatedAt = at }
