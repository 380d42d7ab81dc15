package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/api/dto"
	"github.com/passari/web-ui/internal/repository"
	"github.com/passari/web-ui/internal/service"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// SIPsHandler exposes the JSON SIP endpoints.
type SIPsHandler struct {
	packages *service.PackageService
}

// NewSIPsHandler constructs handler.
func NewSIPsHandler(packages *service.PackageService) *SIPsHandler {
	return &SIPsHandler{packages: packages}
}

// List GET /api/list-sips.
func (h *SIPsHandler) List(c *fiber.Ctx) error {
	filter := repository.PackageFilter{
		OnlyLatest: parseBool(c.Query("only_latest")),
		Preserved:  parseBool(c.Query("preserved")),
		Rejected:   parseBool(c.Query("rejected")),
		Cancelled:  parseBool(c.Query("cancelled")),
		Processing: parseBool(c.Query("processing")),
		Search:     repository.ParseSearch(c.Query("search")),
		Page:       pageRequest(c),
	}

	page, err := h.packages.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(page, dto.NewSIPItem))
}

// LogContent GET /api/get-log-content.
func (h *SIPsHandler) LogContent(c *fiber.Ctx) error {
	sipFilename := c.Query("sip_filename")
	logFilename := c.Query("log_filename")
	if sipFilename == "" || logFilename == "" {
		return apperrors.NewValidationError("sip_filename and log_filename required", nil)
	}

	content, err := h.packages.LogContent(c.UserContext(), sipFilename, logFilename)
	if err != nil {
		return err
	}
	return c.JSON(dto.SucceededWithData(content))
}
