package session

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipstudio/editor-gateway/models"
	"clipstudio/editor-gateway/presets"
)

// fakeTransport scripts the backend boundary. The gate channels let tests
// hold an analyze or upload call in flight while they poke at the session.
type fakeTransport struct {
	mu sync.Mutex

	videos []models.VideoSession
	infos  map[string]models.VideoSession
	clips  map[string][]models.Clip

	uploadResult models.UploadResult
	uploadErr    error
	uploadGate   chan struct{}

	analyzeErr     error
	analyzeStarted chan struct{}
	analyzeGate    chan struct{}
	lastPrompt     *string

	deleted []string

	exportResult models.ExportResult
	exportErr    error
	exportedIDs  []string
	exportedWith models.ExportSettings
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		infos: make(map[string]models.VideoSession),
		clips: make(map[string][]models.Clip),
	}
}

func (f *fakeTransport) ListVideos(ctx context.Context) ([]models.VideoSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.VideoSession(nil), f.videos...), nil
}

func (f *fakeTransport) Upload(ctx context.Context, filename string, r io.Reader, onProgress func(float64)) (models.UploadResult, error) {
	if f.uploadGate != nil {
		<-f.uploadGate
	}
	if onProgress != nil {
		onProgress(0.5)
		onProgress(1.0)
	}
	return f.uploadResult, f.uploadErr
}

func (f *fakeTransport) Info(ctx context.Context, videoID string) (models.VideoSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.infos[videoID]
	if !ok {
		return models.VideoSession{}, &models.TransportError{StatusCode: 404, Message: "Video not found"}
	}
	return info, nil
}

func (f *fakeTransport) Analyze(ctx context.Context, videoID string, prompt *string) error {
	f.mu.Lock()
	f.lastPrompt = prompt
	started := f.analyzeStarted
	gate := f.analyzeGate
	err := f.analyzeErr
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeTransport) Clips(ctx context.Context, videoID string) ([]models.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Clip(nil), f.clips[videoID]...), nil
}

func (f *fakeTransport) DeleteClip(ctx context.Context, videoID, clipID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, clipID)
	return nil
}

func (f *fakeTransport) Export(ctx context.Context, videoID string, clipIDs []string, settings models.ExportSettings) (models.ExportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportedIDs = append([]string(nil), clipIDs...)
	f.exportedWith = settings
	return f.exportResult, f.exportErr
}

func (f *fakeTransport) StreamURL(videoID string) string {
	return "/api/videos/" + videoID + "/stream"
}

func testController(f *fakeTransport) *Controller {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewController(f, log)
}

func twoClips() []models.Clip {
	return []models.Clip{
		{ID: "c1", StartTime: "00:00:05", EndTime: "00:00:15", StartSeconds: 5, EndSeconds: 15, Score: 0.9},
		{ID: "c2", StartTime: "00:01:40", EndTime: "00:01:50", StartSeconds: 100, EndSeconds: 110, Score: 0.8},
	}
}

func TestUploadAnalyzeExportFlow(t *testing.T) {
	f := newFakeTransport()
	f.uploadResult = models.UploadResult{VideoID: "v1", Filename: "match.mp4", Status: "uploaded"}
	f.infos["v1"] = models.VideoSession{VideoID: "v1", Filename: "match.mp4", Duration: 120, Status: models.StatusImported}
	f.clips["v1"] = twoClips()
	f.exportResult = models.ExportResult{ExportID: "e1", DownloadURL: "/api/clips/download/e1"}

	c := testController(f)
	ctx := context.Background()

	video, err := c.Upload(ctx, "match.mp4", nil)
	require.NoError(t, err)
	assert.Equal(t, "v1", video.VideoID)
	assert.Equal(t, models.StatusImported, video.Status)

	snap := c.Snapshot()
	assert.Equal(t, 1.0, snap.UploadProgress)
	require.NotNil(t, snap.Active)
	assert.Equal(t, 120.0, snap.Duration)

	require.NoError(t, c.Analyze(ctx))
	snap = c.Snapshot()
	assert.Equal(t, models.StatusAnalyzed, snap.Active.Status)
	require.Len(t, snap.Clips, 2)

	require.NoError(t, c.ToggleClip("c1"))
	require.NoError(t, c.ToggleClip("c2"))
	require.NoError(t, c.SetExportSettings(models.ExportSettings{Resolution: "720p", Merge: true}))

	url, err := c.Export(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Equal(t, []string{"c1", "c2"}, f.exportedIDs)
	assert.Equal(t, "720p", f.exportedWith.Resolution)
	assert.True(t, f.exportedWith.Merge)
}

func TestAnalyzeSingleFlightPerVideo(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Filename: "a.mp4", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()
	f.analyzeStarted = make(chan struct{}, 1)
	f.analyzeGate = make(chan struct{})

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	done := make(chan error, 1)
	go func() { done <- c.Analyze(context.Background()) }()
	<-f.analyzeStarted

	// Second analyze for the same video while the first is in flight.
	err := c.Analyze(context.Background())
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	close(f.analyzeGate)
	require.NoError(t, <-done)

	// The first call's result still lands.
	snap := c.Snapshot()
	assert.Equal(t, models.StatusAnalyzed, snap.Active.Status)
	assert.Len(t, snap.Clips, 2)
	assert.False(t, snap.Analyzing)
}

func TestStaleAnalyzeResultIsDiscarded(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{
		{VideoID: "v1", Filename: "a.mp4", Status: models.StatusImported},
		{VideoID: "v2", Filename: "b.mp4", Status: models.StatusImported},
	}
	f.infos["v1"] = f.videos[0]
	f.infos["v2"] = f.videos[1]
	f.clips["v1"] = twoClips()
	f.analyzeStarted = make(chan struct{}, 1)
	f.analyzeGate = make(chan struct{})

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.Equal(t, "v1", c.Snapshot().Active.VideoID)

	done := make(chan error, 1)
	go func() { done <- c.Analyze(context.Background()) }()
	<-f.analyzeStarted

	// The user moves on to v2 while v1's analysis is still pending.
	require.NoError(t, c.SelectVideo("v2"))

	close(f.analyzeGate)
	require.NoError(t, <-done)

	snap := c.Snapshot()
	assert.Equal(t, "v2", snap.Active.VideoID)
	assert.Empty(t, snap.Clips, "v1's clips must not leak into v2's session")
	assert.Equal(t, models.StatusImported, snap.Active.Status)
}

func TestAnalyzeFailureRevertsStatusAndKeepsClips(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Filename: "a.mp4", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))
	require.Len(t, c.Snapshot().Clips, 2)

	f.mu.Lock()
	f.analyzeErr = &models.TransportError{StatusCode: 500, Message: "model unavailable"}
	f.mu.Unlock()

	err := c.Analyze(context.Background())
	var tErr *models.TransportError
	require.ErrorAs(t, err, &tErr)

	snap := c.Snapshot()
	assert.Equal(t, models.StatusImported, snap.Active.Status)
	assert.Len(t, snap.Clips, 2, "a failed analyze must not discard previously fetched clips")
}

func TestAnalyzeWithoutVideo(t *testing.T) {
	c := testController(newFakeTransport())
	err := c.Analyze(context.Background())
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestAnalyzePromptResolution(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	// Default preset sends its template.
	require.NoError(t, c.Analyze(context.Background()))
	highlight, _ := presets.Lookup(presets.DefaultID)
	require.NotNil(t, f.lastPrompt)
	assert.Equal(t, highlight.Template, *f.lastPrompt)

	// Custom preset with user text sends the text.
	c.SetCustomPrompt("find the goals")
	require.NoError(t, c.SetPreset(presets.CustomID))
	require.NoError(t, c.Analyze(context.Background()))
	require.NotNil(t, f.lastPrompt)
	assert.Equal(t, "find the goals", *f.lastPrompt)

	// Custom preset with no text falls back to the backend default.
	c.SetCustomPrompt("")
	require.NoError(t, c.Analyze(context.Background()))
	assert.Nil(t, f.lastPrompt)
}

func TestCustomPromptSurvivesPresetSwitch(t *testing.T) {
	c := testController(newFakeTransport())
	c.SetCustomPrompt("my own instruction")
	require.NoError(t, c.SetPreset("funny"))
	require.NoError(t, c.SetPreset(presets.CustomID))
	assert.Equal(t, "my own instruction", c.Snapshot().CustomPrompt)
}

func TestEditFromPreset(t *testing.T) {
	c := testController(newFakeTransport())
	require.NoError(t, c.EditFromPreset("action"))

	snap := c.Snapshot()
	action, _ := presets.Lookup("action")
	assert.Equal(t, presets.CustomID, snap.PresetID)
	assert.Equal(t, action.Template, snap.CustomPrompt)

	assert.Error(t, c.EditFromPreset(presets.CustomID))
	assert.Error(t, c.EditFromPreset("nope"))
}

func TestDeleteClipPrunesSelection(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))
	require.NoError(t, c.ToggleClip("c1"))

	require.NoError(t, c.DeleteClip(context.Background(), "c1"))

	snap := c.Snapshot()
	assert.Len(t, snap.Clips, 1)
	assert.Empty(t, snap.SelectedClips)
	assert.Equal(t, []string{"c1"}, f.deleted)
}

func TestDeleteAbsentClipIsNoop(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	require.NoError(t, c.DeleteClip(context.Background(), "ghost"))
	assert.Empty(t, f.deleted, "absent ids are not retried against the backend")
}

func TestExportRequiresSelection(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	_, err := c.Export(context.Background())
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestExportFailureKeepsSelection(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()
	f.exportErr = &models.TransportError{StatusCode: 500, Message: "ffmpeg crashed"}

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))
	require.NoError(t, c.ToggleClip("c2"))

	_, err := c.Export(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"c2"}, c.Snapshot().SelectedClips)
	assert.False(t, c.Snapshot().Exporting)
}

func TestUploadSingleFlight(t *testing.T) {
	f := newFakeTransport()
	f.uploadResult = models.UploadResult{VideoID: "v1"}
	f.infos["v1"] = models.VideoSession{VideoID: "v1", Status: models.StatusImported}
	f.uploadGate = make(chan struct{})

	c := testController(f)

	done := make(chan error, 1)
	go func() {
		_, err := c.Upload(context.Background(), "a.mp4", nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return c.Snapshot().Uploading }, time.Second, time.Millisecond)

	_, err := c.Upload(context.Background(), "b.mp4", nil)
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	close(f.uploadGate)
	require.NoError(t, <-done)
	assert.False(t, c.Snapshot().Uploading)
}

func TestSelectVideoResetsSessionState(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{
		{VideoID: "v1", Status: models.StatusImported},
		{VideoID: "v2", Status: models.StatusImported},
	}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))
	require.NoError(t, c.ToggleClip("c1"))
	c.ReportDuration(120)
	c.SeekTime(42)

	require.NoError(t, c.SelectVideo("v2"))

	snap := c.Snapshot()
	assert.Equal(t, "v2", snap.Active.VideoID)
	assert.Empty(t, snap.Clips)
	assert.Empty(t, snap.SelectedClips)
	assert.Equal(t, 0.0, snap.CurrentTime)

	assert.Error(t, c.SelectVideo("ghost"))
}

func TestSeekBeforeDurationKnownIsDropped(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	c.Seek(0.5)
	assert.Equal(t, 0.0, c.Snapshot().CurrentTime)

	c.ReportDuration(100)
	c.Seek(0.5)
	assert.Equal(t, 50.0, c.Snapshot().CurrentTime)
}

func TestReportPlaybackDeadZone(t *testing.T) {
	c := testController(newFakeTransport())
	c.SeekTime(10.0)

	_, seek := c.ReportPlayback(10.3)
	assert.False(t, seek)
	assert.Equal(t, 10.3, c.Snapshot().CurrentTime)

	c.SeekTime(10.0)
	correction, seek := c.ReportPlayback(10.6)
	assert.True(t, seek)
	assert.Equal(t, 10.0, correction)
}

func TestClickClipSeeksAndToggles(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))

	require.NoError(t, c.ClickClip("c2"))
	snap := c.Snapshot()
	assert.Equal(t, 100.0, snap.CurrentTime)
	assert.Equal(t, []string{"c2"}, snap.SelectedClips)

	assert.ErrorIs(t, c.ClickClip("ghost"), models.ErrInvalidReference)
}

func TestPreviewClip(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))
	require.NoError(t, c.Analyze(context.Background()))

	require.NoError(t, c.PreviewClip("c1"))
	snap := c.Snapshot()
	assert.Equal(t, 5.0, snap.CurrentTime)
	assert.Empty(t, snap.SelectedClips, "preview must not change the selection")
}

func TestSetExportSettingsValidation(t *testing.T) {
	c := testController(newFakeTransport())
	assert.Error(t, c.SetExportSettings(models.ExportSettings{Resolution: "4k", Merge: true}))
	assert.NoError(t, c.SetExportSettings(models.ExportSettings{Resolution: "original", Merge: false}))
	assert.Equal(t, "original", c.Snapshot().ExportSettings.Resolution)
}

func TestTimelineViewFollowsSession(t *testing.T) {
	f := newFakeTransport()
	f.videos = []models.VideoSession{{VideoID: "v1", Status: models.StatusImported}}
	f.infos["v1"] = f.videos[0]
	f.clips["v1"] = twoClips()

	c := testController(f)
	require.NoError(t, c.Bootstrap(context.Background()))

	view := c.Timeline()
	assert.Empty(t, view.Ticks, "no geometry before the duration is known")

	require.NoError(t, c.Analyze(context.Background()))
	c.ReportDuration(120)
	require.NoError(t, c.ToggleClip("c1"))

	view = c.Timeline()
	require.Len(t, view.Clips, 2)
	assert.True(t, view.Clips[0].Selected)
	assert.NotEmpty(t, view.Ticks)
}
