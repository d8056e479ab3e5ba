package models

import "fmt"

// Clip is a candidate highlight segment detected by the analysis job.
//
// StartSeconds/EndSeconds are authoritative for all arithmetic. StartTime and
// EndTime are HH:MM:SS labels produced by the backend for presentation only
// and must never be parsed back into numbers.
type Clip struct {
	ID            string  `json:"id"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	StartSeconds  float64 `json:"start_seconds"`
	EndSeconds    float64 `json:"end_seconds"`
	Description   string  `json:"description"`
	HighlightType string  `json:"highlight_type"`
	Score         float64 `json:"score"`
	ThumbnailURL  *string `json:"thumbnail_url,omitempty"`
}

// Validate checks the segment invariants: start < end and score within [0,1].
func (c Clip) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("clip has no id")
	}
	if c.StartSeconds < 0 || c.StartSeconds >= c.EndSeconds {
		return fmt.Errorf("clip %s has invalid bounds [%.3f, %.3f]", c.ID, c.StartSeconds, c.EndSeconds)
	}
	if c.Score < 0 || c.Score > 1 {
		return fmt.Errorf("clip %s has score %.3f outside [0,1]", c.ID, c.Score)
	}
	return nil
}
