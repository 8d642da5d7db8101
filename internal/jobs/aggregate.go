package jobs

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepmv/herdwatch/internal/engine"
	"github.com/sandeepmv/herdwatch/pkg/models"
)

// ErrMalformedResult indicates a terminal payload that could not be
// interpreted at all. The poller treats it like an engine-reported failure.
var ErrMalformedResult = errors.New("malformed analysis result")

// resultPayload is the engine's free-form terminal metadata. All fields are
// optional; missing fields degrade to zero rather than failing aggregation.
type resultPayload struct {
	IdentifiedCount int     `json:"identified_count"`
	DetectionCount  int     `json:"detection_count"`
	Confidence      float64 `json:"confidence"`
}

// Aggregate normalizes the terminal payload of a completed analysis plus
// the alerts the engine associated with it into an AnalysisSummary.
// analysisID filters out alert records that belong to a different analysis.
func Aggregate(analysisID string, raw json.RawMessage, alerts []engine.Alert) (*models.AnalysisSummary, error) {
	var payload resultPayload
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
		}
	}

	if payload.IdentifiedCount < 0 {
		payload.IdentifiedCount = 0
	}
	if payload.DetectionCount < 0 {
		payload.DetectionCount = 0
	}
	if payload.Confidence < 0 {
		payload.Confidence = 0
	}
	if payload.Confidence > 1.0 {
		payload.Confidence = 1.0
	}

	alertCount := 0
	tags := []string{}
	seen := make(map[string]bool)
	for _, a := range alerts {
		if a.AnalysisID != analysisID {
			continue
		}
		alertCount++
		if a.AnimalID == "" || seen[a.AnimalID] {
			continue
		}
		seen[a.AnimalID] = true
		tags = append(tags, a.AnimalID)
	}

	summary := fmt.Sprintf("Identified %d animals from %d detections; %d alerts raised (confidence %.0f%%).",
		payload.IdentifiedCount, payload.DetectionCount, alertCount, payload.Confidence*100)

	return &models.AnalysisSummary{
		IdentifiedCount: payload.IdentifiedCount,
		DetectionCount:  payload.DetectionCount,
		AlertCount:      alertCount,
		Confidence:      payload.Confidence,
		Tags:            tags,
		Summary:         summary,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
