package handler

import (
	"fmt"
	"time"

	"expiry-scanner/internal/core/logger"
	"expiry-scanner/internal/features/expiry/domain"
	"expiry-scanner/internal/features/expiry/ports"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ExpiryHandler handles HTTP requests for expiry notices.
type ExpiryHandler struct {
	service ports.ExpiryService
}

// NewExpiryHandler creates a new ExpiryHandler.
func NewExpiryHandler(service ports.ExpiryService) *ExpiryHandler {
	return &ExpiryHandler{
		service: service,
	}
}

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

// NoticeResponse is a single notice as rendered to clients.
type NoticeResponse struct {
	Name     string `json:"name"`
	ItemType string `json:"item_type"`
	When     string `json:"when"`
	// Message is the ready-to-display reminder sentence.
	Message string `json:"message"`
}

// NoticesResponse is the body of GET /expiry/notices.
type NoticesResponse struct {
	UserID       string           `json:"user_id,omitempty"`
	ReferenceDay string           `json:"reference_day,omitempty"`
	HasNotices   bool             `json:"has_notices"`
	Skipped      bool             `json:"skipped"`
	Cached       bool             `json:"cached"`
	Notices      []NoticeResponse `json:"notices"`
}

// GetNotices godoc
// @Summary Get expiring vitamins and medications
// @Description Lists the user's vitamins and medications that expire today or tomorrow. Without user_id no scan is performed.
// @Tags expiry
// @Produce json
// @Param user_id query string false "User ID"
// @Param at query string false "Reference instant (RFC 3339), defaults to now"
// @Param refresh query bool false "Bypass the notice cache"
// @Success 200 {object} NoticesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /expiry/notices [get]
func (h *ExpiryHandler) GetNotices(c *fiber.Ctx) error {
	rayID, ok := c.Locals("requestid").(string)
	if !ok {
		rayID = "unknown"
	}

	userID := c.Query("user_id")

	reference, err := parseReference(c.Query("at"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Message: err.Error(),
			RayID:   rayID,
		})
	}

	scan := h.service.Scan
	if c.QueryBool("refresh") {
		scan = h.service.Rescan
	}

	result, err := scan(c.UserContext(), userID, reference)
	if err != nil {
		logger.Get().Error("Failed to check expiring items",
			zap.String("user_id", userID),
			zap.String("ray_id", rayID),
			zap.Error(err),
		)
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{
			Message: "records service unavailable",
			RayID:   rayID,
		})
	}

	return c.Status(fiber.StatusOK).JSON(toResponse(result))
}

func parseReference(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: at must be an RFC 3339 timestamp", domain.ErrInvalidReferenceInstant)
	}
	return t, nil
}

func toResponse(result *domain.ScanResult) NoticesResponse {
	resp := NoticesResponse{
		UserID:       result.UserID,
		ReferenceDay: result.ReferenceDay,
		HasNotices:   result.HasNotices(),
		Skipped:      result.Skipped,
		Cached:       result.Cached,
		Notices:      make([]NoticeResponse, 0, len(result.Notices)),
	}
	for _, n := range result.Notices {
		resp.Notices = append(resp.Notices, NoticeResponse{
			Name:     n.Name,
			ItemType: string(n.ItemType),
			When:     string(n.When),
			Message:  n.Message(),
		})
	}
	return resp
}
