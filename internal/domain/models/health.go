package models

import "time"

// Priority ranks health cases and dashboard alerts.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities with critical first. Unknown values sort last.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Severe reports whether a case of this priority makes the animal sick.
func (p Priority) Severe() bool {
	return p == PriorityHigh || p == PriorityCritical
}

// CaseStatus tracks a health case through open, in progress and resolved.
type CaseStatus string

const (
	CaseOpen       CaseStatus = "open"
	CaseInProgress CaseStatus = "in_progress"
	CaseResolved   CaseStatus = "resolved"
)

// HealthCase is a sanitary issue tracked against one animal.
type HealthCase struct {
	ID           string     `bson:"id" json:"id"`
	AnimalID     string     `bson:"animal_id" json:"animal_id"`
	AnimalName   string     `bson:"animal_name" json:"animal_name"`
	Issue        string     `bson:"issue" json:"issue"`
	Priority     Priority   `bson:"priority" json:"priority"`
	Status       CaseStatus `bson:"status" json:"status"`
	Treatment    string     `bson:"treatment,omitempty" json:"treatment,omitempty"`
	PhotoURL     string     `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	StartDate    time.Time  `bson:"start_date" json:"start_date"`
	ResolvedDate *time.Time `bson:"resolved_date,omitempty" json:"resolved_date,omitempty"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
}

func (h *HealthCase) EntityID() string { return h.ID }

func (h *HealthCase) Identify(id string, at time.Time) {
	h.ID = id
	h.CreatedAt = at
	if h.Status == "" {
		h.Status = CaseOpen
	}
	if h.StartDate.IsZero() {
		h.StartDate = at
	}
}

func (h *HealthCase) Touch(time.Time) {}
