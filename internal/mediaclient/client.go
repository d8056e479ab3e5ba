// Package mediaclient is the HTTP boundary to the media-processing backend.
// It wraps upload, info/status, analyze, clip listing, delete and export as
// single-flight calls and normalizes every failure into a
// models.TransportError; deciding what a failure means is the session
// controller's job.
package mediaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"clipstudio/editor-gateway/models"
)

// requestTimeout is a long fixed ceiling sized for large video uploads.
const requestTimeout = 5 * time.Minute

// statusPollInterval paces the completion poll inside Analyze.
const statusPollInterval = 2 * time.Second

// Client talks to the media backend. Safe for concurrent use.
type Client struct {
	baseURL      string
	httpc        *http.Client
	log          *logrus.Logger
	pollInterval time.Duration
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpc:        &http.Client{Timeout: requestTimeout},
		log:          log,
		pollInterval: statusPollInterval,
	}
}

// Upload sends the file as a multipart POST and reports fractional transfer
// progress through onProgress while the body streams out.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader, onProgress func(float64)) (models.UploadResult, error) {
	var result models.UploadResult

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return result, &models.TransportError{Message: fmt.Sprintf("building upload body: %v", err)}
	}
	if _, err := io.Copy(part, r); err != nil {
		return result, &models.TransportError{Message: fmt.Sprintf("reading upload file: %v", err)}
	}
	if err := w.Close(); err != nil {
		return result, &models.TransportError{Message: fmt.Sprintf("finalizing upload body: %v", err)}
	}

	total := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/videos/upload",
		&progressReader{r: body, total: total, onProgress: onProgress})
	if err != nil {
		return result, &models.TransportError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.ContentLength = total

	c.log.WithField("filename", filename).Info("Uploading video to backend")
	if err := c.do(req, &result); err != nil {
		return result, err
	}
	return result, nil
}

// Info fetches the backend's metadata snapshot for a video. The status string
// is normalized into the session-level lifecycle.
func (c *Client) Info(ctx context.Context, videoID string) (models.VideoSession, error) {
	var v models.VideoSession
	if err := c.getJSON(ctx, "/api/videos/"+videoID+"/info", &v); err != nil {
		return v, err
	}
	v.Status = models.NormalizeStatus(string(v.Status))
	v.StreamURL = c.StreamURL(v.VideoID)
	return v, nil
}

// Status fetches the backend's processing-status snapshot.
func (c *Client) Status(ctx context.Context, videoID string) (models.StatusResult, error) {
	var st models.StatusResult
	err := c.getJSON(ctx, "/api/videos/"+videoID+"/status", &st)
	return st, err
}

// ListVideos fetches previously imported videos for the catalog sidebar.
func (c *Client) ListVideos(ctx context.Context) ([]models.VideoSession, error) {
	var videos []models.VideoSession
	if err := c.getJSON(ctx, "/api/videos", &videos); err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].Status = models.NormalizeStatus(string(videos[i].Status))
		videos[i].StreamURL = c.StreamURL(videos[i].VideoID)
	}
	return videos, nil
}

// Analyze starts the analysis job and blocks until the backend reports it
// finished. A nil prompt means "use the backend default". The call returns
// only when the job completes, fails, or the deadline passes.
func (c *Client) Analyze(ctx context.Context, videoID string, prompt *string) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]*string{"prompt": prompt})
	if err != nil {
		return &models.TransportError{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/videos/"+videoID+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return &models.TransportError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithField("video_id", videoID).Info("Starting video analysis")
	if err := c.do(req, nil); err != nil {
		return err
	}

	for {
		st, err := c.Status(ctx, videoID)
		if err != nil {
			return err
		}
		switch models.NormalizeStatus(st.Status) {
		case models.StatusAnalyzed:
			return nil
		case models.StatusFailed:
			msg := st.Message
			if msg == "" {
				msg = "analysis failed"
			}
			return &models.TransportError{Message: msg}
		}
		select {
		case <-ctx.Done():
			return &models.TransportError{Message: fmt.Sprintf("analysis wait aborted: %v", ctx.Err())}
		case <-time.After(c.pollInterval):
		}
	}
}

// Clips fetches the detected clip collection in backend order. Segments that
// violate the clip invariants are dropped with a warning rather than poisoning
// the whole collection.
func (c *Client) Clips(ctx context.Context, videoID string) ([]models.Clip, error) {
	var resp struct {
		VideoID    string        `json:"video_id"`
		Clips      []models.Clip `json:"clips"`
		TotalCount int           `json:"total_count"`
	}
	if err := c.getJSON(ctx, "/api/clips/"+videoID, &resp); err != nil {
		return nil, err
	}
	clips := make([]models.Clip, 0, len(resp.Clips))
	for _, clip := range resp.Clips {
		if err := clip.Validate(); err != nil {
			c.log.WithFields(logrus.Fields{"video_id": videoID, "clip_id": clip.ID}).
				Warnf("Dropping invalid clip from backend: %v", err)
			continue
		}
		clips = append(clips, clip)
	}
	return clips, nil
}

// DeleteClip removes one clip on the backend.
func (c *Client) DeleteClip(ctx context.Context, videoID, clipID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/clips/"+videoID+"/"+clipID, nil)
	if err != nil {
		return &models.TransportError{Message: err.Error()}
	}
	return c.do(req, nil)
}

// Export asks the backend to cut the given clips and returns the download
// locator. Format is fixed to mp4, matching the editor.
func (c *Client) Export(ctx context.Context, videoID string, clipIDs []string, settings models.ExportSettings) (models.ExportResult, error) {
	var result models.ExportResult
	payload, err := json.Marshal(map[string]interface{}{
		"clip_ids":   clipIDs,
		"format":     "mp4",
		"resolution": settings.Resolution,
		"merge":      settings.Merge,
	})
	if err != nil {
		return result, &models.TransportError{Message: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/clips/"+videoID+"/export", bytes.NewReader(payload))
	if err != nil {
		return result, &models.TransportError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.WithFields(logrus.Fields{"video_id": videoID, "clip_count": len(clipIDs)}).Info("Exporting clips")
	if err := c.do(req, &result); err != nil {
		return result, err
	}
	return result, nil
}

// StreamURL returns the streaming locator for a video.
func (c *Client) StreamURL(videoID string) string {
	return c.baseURL + "/api/videos/" + videoID + "/stream"
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &models.TransportError{Message: err.Error()}
	}
	return c.do(req, out)
}

// do executes a request and decodes the JSON response into out. Any network
// failure or non-2xx status becomes a TransportError carrying the backend's
// detail message when one is present.
func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return &models.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &models.TransportError{StatusCode: resp.StatusCode, Message: readDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.TransportError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("decoding response: %v", err)}
	}
	return nil
}

// readDetail extracts the backend's {"detail": ...} error message, falling
// back to the raw body.
func readDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(body) == 0 {
		return "backend returned an error"
	}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(body))
}

// progressReader counts bytes as the upload body streams to the backend and
// reports the transferred fraction.
type progressReader struct {
	r          io.Reader
	total      int64
	read       int64
	onProgress func(float64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.onProgress != nil && p.total > 0 {
		fraction := float64(p.read) / float64(p.total)
		if fraction > 1 {
			fraction = 1
		}
		p.onProgress(fraction)
	}
	return n, err
}
