package session

import (
	"clipstudio/editor-gateway/models"
	"clipstudio/editor-gateway/timeline"
)

// Snapshot is a consistent view of the session for the UI, taken under the
// controller lock so no half-applied operation is ever visible.
type Snapshot struct {
	Videos         []models.VideoSession `json:"videos"`
	Active         *models.VideoSession  `json:"active,omitempty"`
	Clips          []models.Clip         `json:"clips"`
	SelectedClips  []string              `json:"selected_clips"`
	CurrentTime    float64               `json:"current_time"`
	Duration       float64               `json:"duration"`
	PresetID       string                `json:"preset_id"`
	CustomPrompt   string                `json:"custom_prompt"`
	ExportSettings models.ExportSettings `json:"export_settings"`
	Uploading      bool                  `json:"uploading"`
	UploadProgress float64               `json:"upload_progress"`
	Analyzing      bool                  `json:"analyzing"`
	Exporting      bool                  `json:"exporting"`
}

// Snapshot captures the current session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Videos:         append([]models.VideoSession(nil), c.videos...),
		Clips:          c.registry.Clips(),
		SelectedClips:  c.registry.SelectedIDs(),
		CurrentTime:    c.playback.Current(),
		Duration:       c.duration,
		PresetID:       c.presetID,
		CustomPrompt:   c.customPrompt,
		ExportSettings: c.settings,
		Uploading:      c.uploading,
		UploadProgress: c.uploadProgress,
		Exporting:      c.exporting,
	}
	if c.active != nil {
		active := *c.active
		snap.Active = &active
		snap.Analyzing = c.analyzing[active.VideoID]
	}
	return snap
}

// Timeline builds the derived timeline geometry for the current state. Never
// cached; the projector recomputes it per call.
func (c *Controller) Timeline() timeline.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return timeline.BuildView(c.duration, c.playback.Current(), c.registry.Clips(), c.registry.IsSelected)
}
