package models

import "time"

// Event is a domain event emitted by a store mutation and consumed by the
// animal status reducer within the same document write.
type Event interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// HealthCaseOpened is emitted when a case is created against an animal.
type HealthCaseOpened struct {
	CaseID    string
	AnimalID  string
	Priority  Priority
	Timestamp time.Time
}

func (e HealthCaseOpened) EventType() string     { return "HealthCaseOpened" }
func (e HealthCaseOpened) AggregateID() string   { return e.AnimalID }
func (e HealthCaseOpened) OccurredAt() time.Time { return e.Timestamp }

// HealthCaseResolved is emitted when a case reaches the resolved state.
type HealthCaseResolved struct {
	CaseID    string
	AnimalID  string
	Timestamp time.Time
}

func (e HealthCaseResolved) EventType() string     { return "HealthCaseResolved" }
func (e HealthCaseResolved) AggregateID() string   { return e.AnimalID }
func (e HealthCaseResolved) OccurredAt() time.Time { return e.Timestamp }

// GestationStarted is emitted when a gestation is recorded for a sow.
type GestationStarted struct {
	GestationID string
	SowID       string
	Timestamp   time.Time
}

func (e GestationStarted) EventType() string     { return "GestationStarted" }
func (e GestationStarted) AggregateID() string   { return e.SowID }
func (e GestationStarted) OccurredAt() time.Time { return e.Timestamp }

// GestationFarrowed is emitted when a sow farrows.
type GestationFarrowed struct {
	GestationID string
	SowID       string
	Timestamp   time.Time
}

func (e GestationFarrowed) EventType() string     { return "GestationFarrowed" }
func (e GestationFarrowed) AggregateID() string   { return e.SowID }
func (e GestationFarrowed) OccurredAt() time.Time { return e.Timestamp }

// GestationCancelled is emitted when an active gestation is deleted.
type GestationCancelled struct {
	GestationID string
	SowID       string
	Timestamp   time.Time
}

func (e GestationCancelled) EventType() string     { return "GestationCancelled" }
func (e GestationCancelled) AggregateID() string   { return e.SowID }
func (e GestationCancelled) OccurredAt() time.Time { return e.Timestamp }

// AnimalSold is emitted by the explicit sell operation.
type AnimalSold struct {
	AnimalID  string
	Timestamp time.Time
}

func (e AnimalSold) EventType() string     { return "AnimalSold" }
func (e AnimalSold) AggregateID() string   { return e.AnimalID }
func (e AnimalSold) OccurredAt() time.Time { return e.Timestamp }

// AnimalDied is emitted by the explicit deceased operation.
type AnimalDied struct {
	AnimalID  string
	Timestamp time.Time
}

func (e AnimalDied) EventType() string     { return "AnimalDied" }
func (e AnimalDied) AggregateID() string   { return e.AnimalID }
func (e AnimalDied) OccurredAt() time.Time { return e.Timestamp }
