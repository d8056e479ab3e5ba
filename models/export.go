package models

// ExportResolutions is the fixed set of output resolutions the backend
// supports. "original" keeps the source resolution.
var ExportResolutions = []string{"720p", "1080p", "original"}

// ExportSettings are the user-tunable export parameters kept on the session.
type ExportSettings struct {
	Resolution string `json:"resolution" validate:"required,oneof=720p 1080p original"`
	Merge      bool   `json:"merge"`
}

// DefaultExportSettings mirrors the editor's initial panel state.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{Resolution: "1080p", Merge: true}
}

// ExportResult is the backend's response to a completed export job.
type ExportResult struct {
	ExportID    string `json:"export_id"`
	VideoID     string `json:"video_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}
