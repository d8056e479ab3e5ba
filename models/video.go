package models

// VideoStatus is the session-level lifecycle state of a video under edit.
type VideoStatus string

const (
	StatusImporting VideoStatus = "importing"
	StatusImported  VideoStatus = "imported"
	StatusAnalyzing VideoStatus = "analyzing"
	StatusAnalyzed  VideoStatus = "analyzed"
	StatusFailed    VideoStatus = "failed"
)

// NormalizeStatus maps the backend's wider status vocabulary onto the
// session-level lifecycle. Unknown values are treated as imported so a video
// that exists on the backend is always usable.
func NormalizeStatus(s string) VideoStatus {
	switch s {
	case "pending", "uploading":
		return StatusImporting
	case "analyzing":
		return StatusAnalyzing
	case "analyzed", "completed":
		return StatusAnalyzed
	case "error":
		return StatusFailed
	default:
		return StatusImported
	}
}

// VideoSession represents one imported video under edit. Duration is zero
// until the playback element reports it; the numeric value reported there is
// authoritative over whatever the backend info endpoint returned.
type VideoSession struct {
	VideoID  string      `json:"video_id"`
	Filename string      `json:"filename"`
	Width    int         `json:"width,omitempty"`
	Height   int         `json:"height,omitempty"`
	Duration float64     `json:"duration,omitempty"`
	Status   VideoStatus `json:"status"`
	// StreamURL is the streaming locator derived from the video identity.
	StreamURL string `json:"stream_url,omitempty"`
}

// UploadResult is the backend's response to a completed multipart upload.
type UploadResult struct {
	VideoID  string `json:"video_id"`
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// StatusResult is the backend's processing-status snapshot, polled while an
// analysis job runs.
type StatusResult struct {
	VideoID  string  `json:"video_id"`
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	Message  string  `json:"message"`
	Duration float64 `json:"duration,omitempty"`
}
