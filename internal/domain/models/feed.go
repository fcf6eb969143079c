package models

import "time"

// FeedingRecord captures one feed distribution.
type FeedingRecord struct {
	ID          string    `bson:"id" json:"id"`
	Date        time.Time `bson:"date" json:"date"`
	FeedType    string    `bson:"feed_type" json:"feed_type"`
	QuantityKg  float64   `bson:"quantity_kg" json:"quantity_kg"`
	Cost        float64   `bson:"cost" json:"cost"`
	AnimalGroup string    `bson:"animal_group" json:"animal_group"`
	Notes       string    `bson:"notes" json:"notes"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

func (r *FeedingRecord) EntityID() string { return r.ID }

func (r *FeedingRecord) Identify(id string, at time.Time) {
	r.ID = id
	r.CreatedAt = at
}

func (r *FeedingRecord) Touch(time.Time) {}

// FeedStock is the inventory level of one feed type.
type FeedStock struct {
	ID          string    `bson:"id" json:"id"`
	Name        string    `bson:"name" json:"name"`
	CurrentQty  float64   `bson:"current_qty" json:"current_qty"`
	MaxQty      float64   `bson:"max_qty" json:"max_qty"`
	Unit        string    `bson:"unit" json:"unit"`
	CostPerUnit float64   `bson:"cost_per_unit" json:"cost_per_unit"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

func (s *FeedStock) EntityID() string { return s.ID }

func (s *FeedStock) Identify(id string, at time.Time) {
	s.ID = id
	s.CreatedAt = at
	s.UpdatedAt = at
}

func (s *FeedStock) Touch(at time.Time) { s.UpdatedAt = at }

// FillRatio returns current/max, or -1 when the capacity is unknown.
func (s FeedStock) FillRatio() float64 {
	if s.MaxQty <= 0 {
		return -1
	}
	return s.CurrentQty / s.MaxQty
}

// FeedProduction records a batch of feed mixed on the farm.
type FeedProduction struct {
	ID          string    `bson:"id" json:"id"`
	Date        time.Time `bson:"date" json:"date"`
	FeedType    string    `bson:"feed_type" json:"feed_type"`
	QuantityKg  float64   `bson:"quantity_kg" json:"quantity_kg"`
	Ingredients []string  `bson:"ingredients" json:"ingredients"`
	Cost        float64   `bson:"cost" json:"cost"`
	Notes       string    `bson:"notes" json:"notes"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

func (p *FeedProduction) EntityID() string { return p.ID }

func (p *FeedProduction) Identify(id string, at time.Time) {
	p.ID = id
	p.CreatedAt = at
}

func (p *FeedProduction) Touch(time.Time) {}

// DailyConsumption is the feed eaten on one day by a group of animals.
type DailyConsumption struct {
	ID          string    `bson:"id" json:"id"`
	Date        time.Time `bson:"date" json:"date"`
	FeedType    string    `bson:"feed_type" json:"feed_type"`
	QuantityKg  float64   `bson:"quantity_kg" json:"quantity_kg"`
	AnimalCount int       `bson:"animal_count" json:"animal_count"`
	Notes       string    `bson:"notes" json:"notes"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

func (d *DailyConsumption) EntityID() string { return d.ID }

func (d *DailyConsumption) Identify(id string, at time.Time) {
	d.ID = id
	d.CreatedAt = at
}

func (d *DailyConsumption) Touch(time.Time) {}
