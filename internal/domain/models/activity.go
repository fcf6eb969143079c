package models

import "time"

// ActivityType tags the recent-activity feed entries.
type ActivityType string

const (
	ActivityAnimalAdded   ActivityType = "animal_added"
	ActivityAnimalUpdated ActivityType = "animal_updated"
	ActivityAnimalDeleted ActivityType = "animal_deleted"
	ActivityHealthCase    ActivityType = "health_case"
	ActivityGestation     ActivityType = "gestation"
	ActivityVaccination   ActivityType = "vaccination"
	ActivityFeeding       ActivityType = "feeding"
)

// MaxActivities bounds the activity feed kept per document.
const MaxActivities = 50

// Activity is one entry of the recent-activity feed.
type Activity struct {
	ID          string       `bson:"id" json:"id"`
	Type        ActivityType `bson:"type" json:"type"`
	Title       string       `bson:"title" json:"title"`
	Description string       `bson:"description" json:"description"`
	EntityID    string       `bson:"entity_id" json:"entity_id"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
}
