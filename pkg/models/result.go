package models

import "time"

// AnalysisSummary is the normalized result stored on a completed VideoJob.
// Counts degrade to zero when the engine omits them; Tags holds resolved
// animal identifiers in first-seen order with duplicates and blanks removed.
type AnalysisSummary struct {
	IdentifiedCount int      `db:"identified_count" json:"identified_count"`
	DetectionCount  int      `db:"detection_count"  json:"detection_count"`
	AlertCount      int      `db:"alert_count"      json:"alert_count"`
	Confidence      float64  `db:"confidence"       json:"confidence"`
	Tags            []string `db:"tags"             json:"tags"`
	Summary         string   `db:"summary"          json:"summary"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
