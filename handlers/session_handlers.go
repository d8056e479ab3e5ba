package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"clipstudio/editor-gateway/models"
	"clipstudio/editor-gateway/presets"
	"clipstudio/editor-gateway/utils"
)

// GetSession returns the full session snapshot.
func (h *ApplicationHandler) GetSession(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Session.Snapshot())
}

// Analyze runs the analysis job for the active video and returns the
// refreshed clip collection when it completes.
func (h *ApplicationHandler) Analyze(c *fiber.Ctx) error {
	if err := h.Session.Analyze(c.UserContext()); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	snap := h.Session.Snapshot()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"video":       snap.Active,
		"clips":       snap.Clips,
		"total_count": len(snap.Clips),
	})
}

// ListPresets returns the prompt preset catalog.
func (h *ApplicationHandler) ListPresets(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, presets.Catalog())
}

// PromptPayload selects the active preset and optionally updates the custom
// prompt text.
type PromptPayload struct {
	PresetID   string  `json:"preset_id" validate:"required"`
	CustomText *string `json:"custom_text,omitempty"`
}

// SetPrompt updates the prompt selection.
func (h *ApplicationHandler) SetPrompt(c *fiber.Ctx) error {
	payload := new(PromptPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	if payload.CustomText != nil {
		h.Session.SetCustomPrompt(*payload.CustomText)
	}
	if err := h.Session.SetPreset(payload.PresetID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"preset_id": payload.PresetID,
	})
}

// DerivePrompt copies a preset's template into the custom text and switches
// to the custom preset, so the user can edit from a template.
func (h *ApplicationHandler) DerivePrompt(c *fiber.Ctx) error {
	payload := new(PromptPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	if err := h.Session.EditFromPreset(payload.PresetID); err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	snap := h.Session.Snapshot()
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"preset_id":     snap.PresetID,
		"custom_prompt": snap.CustomPrompt,
	})
}

// Export cuts the selected clips. An optional body updates the export
// settings first.
func (h *ApplicationHandler) Export(c *fiber.Ctx) error {
	if len(c.Body()) > 0 {
		settings := new(models.ExportSettings)
		if err := c.BodyParser(settings); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
		}
		if err := h.Validate.Struct(settings); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), "; "))
		}
		if err := h.Session.SetExportSettings(*settings); err != nil {
			return utils.RespondWithSessionError(c, err)
		}
	}
	downloadURL, err := h.Session.Export(c.UserContext())
	if err != nil {
		return utils.RespondWithSessionError(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"download_url": downloadURL,
	})
}

// GetTimeline returns the derived timeline geometry for the current state.
func (h *ApplicationHandler) GetTimeline(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Session.Timeline())
}

// SeekPayload is a fractional track position.
type SeekPayload struct {
	Position *float64 `json:"position" validate:"required,min=0,max=1"`
}

// Seek moves playback to a fractional track position. While the duration is
// unknown the seek is dropped and the unchanged time returned.
func (h *ApplicationHandler) Seek(c *fiber.Ctx) error {
	payload := new(SeekPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	h.Session.Seek(*payload.Position)
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{
		"current_time": h.Session.Snapshot().CurrentTime,
	})
}

// PlaybackPayload is one observed-time report from the playing element, with
// the element's discovered duration when available.
type PlaybackPayload struct {
	Observed *float64 `json:"observed" validate:"required,min=0"`
	Duration float64  `json:"duration,omitempty"`
}

// ReportPlayback feeds an observed-time report through the dead-zone sync and
// returns a correction command when the element has drifted.
func (h *ApplicationHandler) ReportPlayback(c *fiber.Ctx) error {
	payload := new(PlaybackPayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if err := h.Validate.Struct(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), "; "))
	}
	if payload.Duration > 0 {
		h.Session.ReportDuration(payload.Duration)
	}
	correction, seek := h.Session.ReportPlayback(*payload.Observed)
	resp := fiber.Map{
		"seek":         seek,
		"current_time": h.Session.Snapshot().CurrentTime,
	}
	if seek {
		resp["correction"] = correction
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, resp)
}
