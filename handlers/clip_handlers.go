package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clipstudio/editor-gateway/utils"
)

// ListClips returns the active video's clip collection plus the selection.
func (h *ApplicationHandler) ListClips(c *fiber.Ctx) error {
	snap := h.Session.Snapshot()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"clips":          snap.Clips,
		"selected_clips": snap.SelectedClips,
		"total_count":    len(snap.Clips),
	})
}

// ToggleClip flips a clip's selection membership.
func (h *ApplicationHandler) ToggleClip(c *fiber.Ctx) error {
	clipID := c.Params("clipId")
	if err := h.Session.ToggleClip(clipID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	snap := h.Session.Snapshot()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"selected_clips": snap.SelectedClips,
	})
}

// ClickClip is the timeline clip-click action: seek to the clip's start and
// toggle its selection in one step.
func (h *ApplicationHandler) ClickClip(c *fiber.Ctx) error {
	clipID := c.Params("clipId")
	if err := h.Session.ClickClip(clipID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	snap := h.Session.Snapshot()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"current_time":   snap.CurrentTime,
		"selected_clips": snap.SelectedClips,
	})
}

// PreviewClip jumps playback to a clip's start without changing selection.
func (h *ApplicationHandler) PreviewClip(c *fiber.Ctx) error {
	clipID := c.Params("clipId")
	if err := h.Session.PreviewClip(clipID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"current_time": h.Session.Snapshot().CurrentTime,
	})
}

// DeleteClip removes a clip on the backend and from the session. Deleting an
// id that is already gone is treated as done.
func (h *ApplicationHandler) DeleteClip(c *fiber.Ctx) error {
	clipID := c.Params("clipId")
	if err := h.Session.DeleteClip(c.UserContext(), clipID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"deleted": clipID,
	})
}
