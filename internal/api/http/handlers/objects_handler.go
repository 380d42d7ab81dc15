package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/api/dto"
	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/workflow"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// ObjectsHandler exposes the JSON object endpoints.
type ObjectsHandler struct {
	objects *service.ObjectService
}

// NewObjectsHandler constructs handler.
func NewObjectsHandler(objects *service.ObjectService) *ObjectsHandler {
	return &ObjectsHandler{objects: objects}
}

// ListFrozen GET /api/list-frozen-objects.
func (h *ObjectsHandler) ListFrozen(c *fiber.Ctx) error {
	page, err := h.objects.ListFrozen(c.UserContext(), c.Query("search"), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewListResponse(page, dto.NewFrozenObjectItem))
}

// Unfreeze POST /api/unfreeze-objects.
func (h *ObjectsHandler) Unfreeze(c *fiber.Ctx) error {
	var req dto.UnfreezeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ids, err := parseIDList(req.ObjectIDs, ",")
	if err != nil {
		return apperrors.NewValidationError("object_ids must be a comma separated list of integers",
			map[string]any{"field": "object_ids"})
	}

	input := workflow.UnfreezeInput{ObjectIDs: ids, Enqueue: parseBool(req.Enqueue)}
	if reason := freezeReason(req.Reason); reason != "" {
		input.Reason = &reason
	}

	count, err := h.objects.Unfreeze(c.UserContext(), actorFromContext(c), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.SucceededWithCount(count))
}

// Reenqueue POST /api/reenqueue-object. Refusals are reported in the body.
func (h *ObjectsHandler) Reenqueue(c *fiber.Ctx) error {
	objectID, err := parseID(c.FormValue("object_id"))
	if err != nil {
		return c.JSON(dto.Failed("Invalid object ID"))
	}

	if err := h.objects.Reenqueue(c.UserContext(), actorFromContext(c), objectID); err != nil {
		if msg, ok := userFacingMessage(err); ok {
			return c.JSON(dto.Failed(msg))
		}
		return err
	}
	return c.JSON(dto.Succeeded())
}

// userFacingMessage returns the message of errors the user caused, as
// opposed to failures of the service.
func userFacingMessage(err error) (string, bool) {
	for _, code := range []string{apperrors.CodeValidation, apperrors.CodePrecondition, apperrors.CodeNotFound} {
		if apperrors.IsCode(err, code) {
			return apperrors.ToDomainError(err).Message, true
		}
	}
	return "", false
}
