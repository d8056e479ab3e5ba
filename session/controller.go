// Package session implements the editing-session state machine: one active
// video, its clip collection and selection, playback position, prompt choice
// and the lifecycle of every asynchronous backend operation.
//
// Concurrency model: one mutex guards all session state. Backend calls happen
// outside the lock so interaction stays responsive; when a call completes, the
// completion re-acquires the lock and applies its result only if its target
// video is still the active one. That stale-response guard stands in for
// cancellation: an abandoned call is allowed to finish, its result is just
// discarded.
package session

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"clipstudio/editor-gateway/clipset"
	"clipstudio/editor-gateway/models"
	"clipstudio/editor-gateway/playback"
	"clipstudio/editor-gateway/presets"
	"clipstudio/editor-gateway/timeline"
)

// Transport is the backend boundary the controller drives. Implemented by
// mediaclient.Client; tests install their own.
type Transport interface {
	ListVideos(ctx context.Context) ([]models.VideoSession, error)
	Upload(ctx context.Context, filename string, r io.Reader, onProgress func(float64)) (models.UploadResult, error)
	Info(ctx context.Context, videoID string) (models.VideoSession, error)
	Analyze(ctx context.Context, videoID string, prompt *string) error
	Clips(ctx context.Context, videoID string) ([]models.Clip, error)
	DeleteClip(ctx context.Context, videoID, clipID string) error
	Export(ctx context.Context, videoID string, clipIDs []string, settings models.ExportSettings) (models.ExportResult, error)
	StreamURL(videoID string) string
}

// Controller is the top-level session state machine.
type Controller struct {
	mu        sync.Mutex
	log       *logrus.Logger
	transport Transport

	videos []models.VideoSession
	active *models.VideoSession

	registry *clipset.Registry
	playback *playback.Sync
	// duration becomes authoritative once the playback element reports it.
	duration float64

	presetID     string
	customPrompt string
	settings     models.ExportSettings

	uploading      bool
	uploadProgress float64
	analyzing      map[string]bool
	exporting      bool
}

// NewController creates a controller in the idle state.
func NewController(transport Transport, log *logrus.Logger) *Controller {
	return &Controller{
		log:       log,
		transport: transport,
		registry:  clipset.NewRegistry(),
		playback:  playback.NewSync(),
		presetID:  presets.DefaultID,
		settings:  models.DefaultExportSettings(),
		analyzing: make(map[string]bool),
	}
}

// Bootstrap loads the backend's video catalog and auto-selects the first
// entry, mirroring the editor's startup behavior. A backend failure leaves
// the session idle but usable.
func (c *Controller) Bootstrap(ctx context.Context) error {
	videos, err := c.transport.ListVideos(ctx)
	if err != nil {
		c.log.Warnf("Could not load video catalog: %v", err)
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.videos = videos
	if len(videos) > 0 && c.active == nil {
		c.selectLocked(videos[0])
	}
	return nil
}

// SelectVideo makes a known video the active one. Always legal; clips,
// selection and playback position are reset, and any still-pending operation
// for the previous video becomes stale.
func (c *Controller) SelectVideo(videoID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range c.videos {
		if v.VideoID == videoID {
			c.selectLocked(v)
			return nil
		}
	}
	return &models.InvalidStateError{Op: "select", Reason: "unknown video " + videoID}
}

func (c *Controller) selectLocked(v models.VideoSession) {
	v.StreamURL = c.transport.StreamURL(v.VideoID)
	c.active = &v
	c.registry.ReplaceAll(nil)
	c.playback.Reset()
	c.duration = v.Duration
}

// Upload transfers a new video to the backend, fetches its metadata and makes
// it the active video. Single-flight: a second upload while one is running is
// an InvalidState error.
func (c *Controller) Upload(ctx context.Context, filename string, r io.Reader) (models.VideoSession, error) {
	c.mu.Lock()
	if c.uploading {
		c.mu.Unlock()
		return models.VideoSession{}, &models.InvalidStateError{Op: "upload", Reason: "an upload is already in progress"}
	}
	c.uploading = true
	c.uploadProgress = 0
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.uploading = false
		c.mu.Unlock()
	}()

	result, err := c.transport.Upload(ctx, filename, r, c.setUploadProgress)
	if err != nil {
		return models.VideoSession{}, err
	}
	info, err := c.transport.Info(ctx, result.VideoID)
	if err != nil {
		return models.VideoSession{}, err
	}
	if info.Status == models.StatusImporting {
		info.Status = models.StatusImported
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.mergeVideoLocked(info)
	c.selectLocked(info)
	c.log.WithFields(logrus.Fields{"video_id": info.VideoID, "filename": info.Filename}).Info("Video imported")
	return info, nil
}

func (c *Controller) setUploadProgress(fraction float64) {
	c.mu.Lock()
	c.uploadProgress = fraction
	c.mu.Unlock()
}

func (c *Controller) mergeVideoLocked(v models.VideoSession) {
	for i := range c.videos {
		if c.videos[i].VideoID == v.VideoID {
			c.videos[i] = v
			return
		}
	}
	c.videos = append(c.videos, v)
}

// Analyze runs the analysis job for the active video with the currently
// resolved prompt, then refreshes the clip collection and video info. A
// second call for the same video while one is outstanding fails with
// InvalidState; a call whose video is no longer active by the time it
// completes is discarded without touching session state.
func (c *Controller) Analyze(ctx context.Context) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return &models.InvalidStateError{Op: "analyze", Reason: "no video selected"}
	}
	videoID := c.active.VideoID
	if c.analyzing[videoID] {
		c.mu.Unlock()
		return &models.InvalidStateError{Op: "analyze", Reason: "analysis already in progress for this video"}
	}
	c.analyzing[videoID] = true
	c.active.Status = models.StatusAnalyzing
	prompt := presets.Resolve(c.presetID, c.customPrompt)
	c.mu.Unlock()

	err := c.transport.Analyze(ctx, videoID, prompt)
	var clips []models.Clip
	var info models.VideoSession
	var infoErr error
	if err == nil {
		clips, err = c.transport.Clips(ctx, videoID)
	}
	if err == nil {
		info, infoErr = c.transport.Info(ctx, videoID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.analyzing, videoID)

	if c.active == nil || c.active.VideoID != videoID {
		c.log.WithField("video_id", videoID).Info("Discarding analysis result for inactive video")
		return nil
	}
	if err != nil {
		// Prior clips stay; only the status reverts.
		c.active.Status = models.StatusImported
		c.syncVideoLocked()
		return err
	}
	c.registry.ReplaceAll(clips)
	if infoErr == nil {
		c.active.Filename = info.Filename
		c.active.Width = info.Width
		c.active.Height = info.Height
		if c.duration == 0 {
			c.duration = info.Duration
		}
		c.active.Duration = info.Duration
	}
	c.active.Status = models.StatusAnalyzed
	c.syncVideoLocked()
	c.log.WithFields(logrus.Fields{"video_id": videoID, "clip_count": len(clips)}).Info("Analysis complete")
	return nil
}

// syncVideoLocked writes the active video's latest state back into the
// catalog entry.
func (c *Controller) syncVideoLocked() {
	if c.active == nil {
		return
	}
	for i := range c.videos {
		if c.videos[i].VideoID == c.active.VideoID {
			c.videos[i] = *c.active
			return
		}
	}
}

// ToggleClip flips a clip's selection membership.
func (c *Controller) ToggleClip(clipID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.ToggleSelected(clipID)
}

// DeleteClip removes a clip on the backend and then from the registry, which
// also drops it from the selection in the same update. Deleting an id that is
// already gone locally is a no-op, not an error.
func (c *Controller) DeleteClip(ctx context.Context, clipID string) error {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return &models.InvalidStateError{Op: "delete", Reason: "no video selected"}
	}
	videoID := c.active.VideoID
	if _, ok := c.registry.Get(clipID); !ok {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if err := c.transport.DeleteClip(ctx, videoID, clipID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.VideoID != videoID {
		return nil
	}
	c.registry.Remove(clipID)
	return nil
}

// Export cuts the selected clips with the current settings and returns the
// download locator. Requires a non-empty selection and no export already in
// flight; a failed export leaves the selection untouched.
func (c *Controller) Export(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.active == nil {
		c.mu.Unlock()
		return "", &models.InvalidStateError{Op: "export", Reason: "no video selected"}
	}
	if c.exporting {
		c.mu.Unlock()
		return "", &models.InvalidStateError{Op: "export", Reason: "an export is already in progress"}
	}
	clipIDs := c.registry.SelectedIDs()
	if len(clipIDs) == 0 {
		c.mu.Unlock()
		return "", &models.InvalidStateError{Op: "export", Reason: "no clips selected"}
	}
	videoID := c.active.VideoID
	settings := c.settings
	c.exporting = true
	c.mu.Unlock()

	result, err := c.transport.Export(ctx, videoID, clipIDs, settings)

	c.mu.Lock()
	c.exporting = false
	c.mu.Unlock()

	if err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{"video_id": videoID, "export_id": result.ExportID}).Info("Export complete")
	return result.DownloadURL, nil
}

// SetPreset activates a prompt preset. The user's custom text is retained so
// switching away from custom loses nothing.
func (c *Controller) SetPreset(id string) error {
	if _, ok := presets.Lookup(id); !ok {
		return &models.InvalidStateError{Op: "prompt", Reason: "unknown preset " + id}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presetID = id
	return nil
}

// SetCustomPrompt stores the user-authored analysis instruction.
func (c *Controller) SetCustomPrompt(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customPrompt = text
}

// EditFromPreset copies a preset's template into the custom text and
// activates the custom preset, so the user can tweak a template.
func (c *Controller) EditFromPreset(id string) error {
	p, ok := presets.Lookup(id)
	if !ok || presets.IsCustom(id) {
		return &models.InvalidStateError{Op: "prompt", Reason: "no template to edit for preset " + id}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customPrompt = p.Template
	c.presetID = presets.CustomID
	return nil
}

// SetExportSettings updates the export parameters after validating the
// resolution against the supported set.
func (c *Controller) SetExportSettings(settings models.ExportSettings) error {
	valid := false
	for _, r := range models.ExportResolutions {
		if settings.Resolution == r {
			valid = true
			break
		}
	}
	if !valid {
		return &models.InvalidStateError{Op: "export settings", Reason: "unsupported resolution " + settings.Resolution}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settings = settings
	return nil
}

// Seek moves the playback position to a fractional track position. Dropped
// while the duration is still unknown.
func (c *Controller) Seek(position float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := timeline.ToTime(position, c.duration)
	if !ok {
		return
	}
	c.playback.Request(t)
}

// SeekTime moves the playback position to an absolute time, as when
// previewing a clip or clicking its bar.
func (c *Controller) SeekTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playback.Request(t)
}

// PreviewClip jumps playback to a clip's start.
func (c *Controller) PreviewClip(clipID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.registry.Get(clipID)
	if !ok {
		return models.ErrInvalidReference
	}
	c.playback.Request(clip.StartSeconds)
	return nil
}

// ClickClip is the timeline clip-click action: jump to the clip's start and
// toggle its selection.
func (c *Controller) ClickClip(clipID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clip, ok := c.registry.Get(clipID)
	if !ok {
		return models.ErrInvalidReference
	}
	c.playback.Request(clip.StartSeconds)
	return c.registry.ToggleSelected(clipID)
}

// ReportPlayback feeds one observed-time report from the playing element
// through the dead-zone sync. The returned correction, when seek is true, is
// the position the element must be set to.
func (c *Controller) ReportPlayback(observed float64) (correction float64, seek bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playback.Observe(observed)
}

// ReportDuration records the duration the playback element discovered. This
// value is authoritative once known.
func (c *Controller) ReportDuration(d float64) {
	if d <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.duration = d
	if c.active != nil {
		c.active.Duration = d
		c.syncVideoLocked()
	}
}
