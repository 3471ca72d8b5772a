package handler

import (
	"context"

	"expiry-scanner/internal/features/reminders/domain"

	"github.com/gofiber/fiber/v2"
)

// DigestRunner is the part of the reminder scheduler the handler needs.
type DigestRunner interface {
	RunOnce(ctx context.Context, trigger domain.Trigger) *domain.Digest
	LastDigest() *domain.Digest
}

// ReminderHandler handles HTTP requests for reminder digests.
type ReminderHandler struct {
	runner DigestRunner
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(runner DigestRunner) *ReminderHandler {
	return &ReminderHandler{runner: runner}
}

// GetDigest handles GET /reminders/digest.
// @Summary Get the latest reminder digest
// @Description Returns the result of the most recent reminder run over the watched users.
// @Tags reminders
// @Produce json
// @Success 200 {object} domain.Digest
// @Failure 404 {object} map[string]string
// @Router /reminders/digest [get]
func (h *ReminderHandler) GetDigest(c *fiber.Ctx) error {
	digest := h.runner.LastDigest()
	if digest == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No reminder run yet",
		})
	}
	return c.Status(fiber.StatusOK).JSON(digest)
}

// RunDigest handles POST /reminders/run.
// @Summary Run the reminder digest now
// @Description Scans every watched user immediately and returns the digest.
// @Tags reminders
// @Produce json
// @Success 200 {object} domain.Digest
// @Router /reminders/run [post]
func (h *ReminderHandler) RunDigest(c *fiber.Ctx) error {
	digest := h.runner.RunOnce(c.UserContext(), domain.TriggerManual)
	return c.Status(fiber.StatusOK).JSON(digest)
}
