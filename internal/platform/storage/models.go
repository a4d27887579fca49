package storage

import (
	"time"

	"gorm.io/datatypes"
)

// AnalysisRecord is the persisted trace of one completed analysis. Rejected
// and failed submissions are recorded too, with Status and Code set and the
// result columns empty.
type AnalysisRecord struct {
	ID       uint   `gorm:"primaryKey"               json:"id"`
	ClientID string `gorm:"index"                    json:"client_id,omitempty"`
	Status   string `gorm:"index;not null"           json:"status"`
	Code     string `gorm:"type:varchar(64)"         json:"code,omitempty"`

	Species            string         `gorm:"type:varchar(32);index" json:"species,omitempty"`
	PrimaryBreed       string         `gorm:"type:varchar(128)"      json:"primary_breed,omitempty"`
	Crossbreed         bool           `                              json:"crossbreed"`
	Confidence         float64        `                              json:"confidence"`
	BreedProbabilities datatypes.JSON `                              json:"breed_probabilities,omitempty"`
	Description        string         `gorm:"type:text"              json:"description,omitempty"`
	Traits             datatypes.JSON `                              json:"traits,omitempty"`
	HealthObservations datatypes.JSON `                              json:"health_observations,omitempty"`
	Enriched           bool           `                              json:"enriched"`

	ImageFormat string `gorm:"type:varchar(16)" json:"image_format,omitempty"`
	ImageWidth  int    `                        json:"image_width,omitempty"`
	ImageHeight int    `                        json:"image_height,omitempty"`
	ElapsedMS   int64  `                        json:"elapsed_ms"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Record statuses.
const (
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
	StatusFailed    = "failed"
)
