package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/web"
	"github.com/passari/web-ui/internal/workflow"
)

const fieldRequired = "This field is required."

type formErrors map[string][]string

func (e formErrors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// FormsHandler serves the forms that trigger workflow actions.
type FormsHandler struct {
	views   *PageRenderer
	objects *service.ObjectService
}

// NewFormsHandler constructs handler.
func NewFormsHandler(views *PageRenderer, objects *service.ObjectService) *FormsHandler {
	return &FormsHandler{views: views, objects: objects}
}

// EnqueueForm GET /web-ui/enqueue-objects/.
func (h *FormsHandler) EnqueueForm(c *fiber.Ctx) error {
	return h.renderEnqueue(c, "", formErrors{})
}

// EnqueueSubmit POST /web-ui/enqueue-objects/.
func (h *FormsHandler) EnqueueSubmit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	raw := c.FormValue("object_count")
	errs := formErrors{}

	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		errs.add("object_count", fieldRequired)
		return h.renderEnqueue(c, raw, errs)
	}
	if _, err := h.objects.ValidateEnqueueCount(ctx, count); err != nil {
		msg, ok := userFacingMessage(err)
		if !ok {
			return err
		}
		errs.add("object_count", msg)
		return h.renderEnqueue(c, raw, errs)
	}

	enqueued, err := h.objects.Enqueue(ctx, actorFromContext(c), count)
	if err != nil {
		return err
	}
	web.AddFlash(c, "success", fmt.Sprintf("%d object(s) were enqueued.", enqueued))
	return c.Redirect("/web-ui/enqueue-objects/success/", fiber.StatusFound)
}

func (h *FormsHandler) renderEnqueue(c *fiber.Ctx, objectCount string, errs formErrors) error {
	available, err := h.objects.AvailableCount(c.UserContext())
	if err != nil {
		return err
	}
	return h.views.Render(c, "enqueue_objects", fiber.Map{
		"Title":          "Enqueue objects",
		"AvailableCount": available,
		"ObjectCount":    objectCount,
		"Errors":         errs,
	})
}

// FreezeForm GET /web-ui/freeze-objects/. ?object_ids= prefills the form.
func (h *FormsHandler) FreezeForm(c *fiber.Ctx) error {
	return h.renderFreeze(c, fiber.Map{"ObjectIDs": c.Query("object_ids")})
}

// FreezeSubmit POST /web-ui/freeze-objects/.
func (h *FormsHandler) FreezeSubmit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	rawIDs := c.FormValue("object_ids")
	reason := freezeReason(c.FormValue("reason"))
	form := fiber.Map{"ObjectIDs": rawIDs, "Reason": reason}
	errs := formErrors{}

	ids, err := parseIDList(strings.ReplaceAll(rawIDs, "\r\n", "\n"), "\n")
	switch {
	case err != nil:
		errs.add("object_ids", "Object IDs have to be integers, one per line")
	case len(ids) == 0:
		errs.add("object_ids", "No object ID was provided")
	default:
		missing, err := h.objects.MissingObjectIDs(ctx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			errs.add("object_ids", "Following objects don't exist: "+joinIDs(missing))
		}
	}
	if reason == "" {
		errs.add("reason", fieldRequired)
	}
	if len(errs) > 0 {
		form["Errors"] = errs
		return h.renderFreeze(c, form)
	}

	frozen, cancelled, err := h.objects.Freeze(ctx, actorFromContext(c), ids, reason)
	if err != nil {
		var running *workflow.JobRunningError
		if errors.As(err, &running) {
			form["Error"] = running.Error()
			return h.renderFreeze(c, form)
		}
		if msg, ok := userFacingMessage(err); ok {
			form["Error"] = msg
			return h.renderFreeze(c, form)
		}
		return err
	}

	web.AddFlash(c, "success", fmt.Sprintf("%d object(s) were frozen, %d package(s) were cancelled.", frozen, cancelled))
	return c.Redirect("/web-ui/freeze-objects/success/", fiber.StatusFound)
}

func (h *FormsHandler) renderFreeze(c *fiber.Ctx, data fiber.Map) error {
	data["Title"] = "Freeze objects"
	return h.views.Render(c, "freeze_objects", data)
}

// UnfreezeForm GET /web-ui/unfreeze-objects/. ?reason= prefills the form.
func (h *FormsHandler) UnfreezeForm(c *fiber.Ctx) error {
	return h.renderUnfreeze(c, fiber.Map{"Reason": c.Query("reason")})
}

// UnfreezeSubmit POST /web-ui/unfreeze-objects/.
func (h *FormsHandler) UnfreezeSubmit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	reason := freezeReason(c.FormValue("reason"))
	enqueue := parseBool(c.FormValue("enqueue"))
	form := fiber.Map{"Reason": reason, "Enqueue": enqueue}

	exists := false
	if reason != "" {
		var err error
		exists, err = h.objects.FrozenReasonExists(ctx, reason)
		if err != nil {
			return err
		}
	}
	if !exists {
		form["Errors"] = formErrors{"reason": {"No objects with this reason were found."}}
		return h.renderUnfreeze(c, form)
	}

	count, err := h.objects.Unfreeze(ctx, actorFromContext(c), workflow.UnfreezeInput{
		Reason:  &reason,
		Enqueue: enqueue,
	})
	if err != nil {
		return err
	}
	web.AddFlash(c, "success", fmt.Sprintf("%d object(s) were unfrozen.", count))
	return c.Redirect("/web-ui/unfreeze-objects/success/", fiber.StatusFound)
}

func (h *FormsHandler) renderUnfreeze(c *fiber.Ctx, data fiber.Map) error {
	data["Title"] = "Unfreeze objects"
	return h.views.Render(c, "unfreeze_objects", data)
}

// ReenqueueForm GET /web-ui/reenqueue-object/.
func (h *FormsHandler) ReenqueueForm(c *fiber.Ctx) error {
	return h.renderReenqueue(c, fiber.Map{"ObjectID": c.Query("object_id")})
}

// ReenqueueSubmit POST /web-ui/reenqueue-object/.
func (h *FormsHandler) ReenqueueSubmit(c *fiber.Ctx) error {
	ctx := c.UserContext()
	raw := c.FormValue("object_id")
	form := fiber.Map{"ObjectID": raw}

	objectID, err := parseID(raw)
	if err != nil {
		form["Errors"] = formErrors{"object_id": {fieldRequired}}
		return h.renderReenqueue(c, form)
	}
	exists, err := h.objects.ObjectExists(ctx, objectID)
	if err != nil {
		return err
	}
	if !exists {
		form["Errors"] = formErrors{"object_id": {"Object with the given ID does not exist"}}
		return h.renderReenqueue(c, form)
	}

	if err := h.objects.Reenqueue(ctx, actorFromContext(c), objectID); err != nil {
		msg, ok := userFacingMessage(err)
		if !ok {
			return err
		}
		form["Error"] = msg
		return h.renderReenqueue(c, form)
	}
	web.AddFlash(c, "success", fmt.Sprintf("Object %d was re-enqueued.", objectID))
	return c.Redirect("/web-ui/reenqueue-object/success/", fiber.StatusFound)
}

func (h *FormsHandler) renderReenqueue(c *fiber.Ctx, data fiber.Map) error {
	data["Title"] = "Re-enqueue object"
	return h.views.Render(c, "reenqueue_object", data)
}

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ", ")
}
