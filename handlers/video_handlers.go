package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"clipstudio/editor-gateway/utils"
)

// ListVideos returns the known-videos catalog.
func (h *ApplicationHandler) ListVideos(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Session.Snapshot().Videos)
}

// UploadVideo imports a new video: the file is relayed to the backend and the
// resulting video becomes the active one.
func (h *ApplicationHandler) UploadVideo(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}
	if !strings.Contains(file.Header.Get("Content-Type"), "video") && !hasVideoExtension(file.Filename) {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Only video files can be imported")
	}

	fileHandle, err := file.Open()
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Error opening file: %v", err))
	}
	defer fileHandle.Close()

	video, err := h.Session.Upload(c.UserContext(), file.Filename, fileHandle)
	if err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusCreated, video)
}

// SelectVideo switches the active video, resetting clips, selection and
// playback position.
func (h *ApplicationHandler) SelectVideo(c *fiber.Ctx) error {
	videoID := c.Params("videoId")
	if err := h.Session.SelectVideo(videoID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Session.Snapshot().Active)
}

var videoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".flv"}

func hasVideoExtension(filename string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range videoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
