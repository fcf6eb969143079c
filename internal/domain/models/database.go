package models

import (
	"slices"
	"time"
)

// Database is the whole per-user document. It is persisted and loaded as one unit.
type Database struct {
	Owner             string             `bson:"owner" json:"owner"`
	Revision          int64              `bson:"revision" json:"revision"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updated_at"`
	Animals           []Animal           `bson:"animals" json:"animals"`
	HealthCases       []HealthCase       `bson:"health_cases" json:"health_cases"`
	Gestations        []Gestation        `bson:"gestations" json:"gestations"`
	Vaccinations      []Vaccination      `bson:"vaccinations" json:"vaccinations"`
	Activities        []Activity         `bson:"activities" json:"activities"`
	FeedingRecords    []FeedingRecord    `bson:"feeding_records" json:"feeding_records"`
	FeedStocks        []FeedStock        `bson:"feed_stocks" json:"feed_stocks"`
	FeedProductions   []FeedProduction   `bson:"feed_productions" json:"feed_productions"`
	DailyConsumptions []DailyConsumption `bson:"daily_consumptions" json:"daily_consumptions"`
}

// NewDatabase returns an empty document for owner.
func NewDatabase(owner string) *Database {
	return &Database{
		Owner:             owner,
		Animals:           []Animal{},
		HealthCases:       []HealthCase{},
		Gestations:        []Gestation{},
		Vaccinations:      []Vaccination{},
		Activities:        []Activity{},
		FeedingRecords:    []FeedingRecord{},
		FeedStocks:        []FeedStock{},
		FeedProductions:   []FeedProduction{},
		DailyConsumptions: []DailyConsumption{},
	}
}

// Clone copies the collections so the copy can be mutated independently.
// Pointer fields inside records are shared; records are replaced, never mutated through them.
func (d *Database) Clone() *Database {
	if d == nil {
		return nil
	}
	out := *d
	out.Animals = slices.Clone(d.Animals)
	out.HealthCases = slices.Clone(d.HealthCases)
	out.Gestations = slices.Clone(d.Gestations)
	out.Vaccinations = slices.Clone(d.Vaccinations)
	out.Activities = slices.Clone(d.Activities)
	out.FeedingRecords = slices.Clone(d.FeedingRecords)
	out.FeedStocks = slices.Clone(d.FeedStocks)
	out.FeedProductions = slices.Clone(d.FeedProductions)
	out.DailyConsumptions = slices.Clone(d.DailyConsumptions)
	return &out
}

// Normalize replaces nil collections left by decoders with empty ones.
func (d *Database) Normalize() {
	if d.Animals == nil {
		d.Animals = []Animal{}
	}
	if d.HealthCases == nil {
		d.HealthCases = []HealthCase{}
	}
	if d.Gestations == nil {
		d.Gestations = []Gestation{}
	}
	if d.Vaccinations == nil {
		d.Vaccinations = []Vaccination{}
	}
	if d.Activities == nil {
		d.Activities = []Activity{}
	}
	if d.FeedingRecords == nil {
		d.FeedingRecords = []FeedingRecord{}
	}
	if d.FeedStocks == nil {
		d.FeedStocks = []FeedStock{}
	}
	if d.FeedProductions == nil {
		d.FeedProductions = []FeedProduction{}
	}
	if d.DailyConsumptions == nil {
		d.DailyConsumptions = []DailyConsumption{}
	}
}

// FindAnimal returns the index of the animal with id, or -1.
func (d *Database) FindAnimal(id string) int {
	return slices.IndexFunc(d.Animals, func(a Animal) bool { return a.ID == id })
}
