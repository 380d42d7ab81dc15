package handlers

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/passari/web-ui/internal/service"
	"github.com/passari/web-ui/internal/web"
	apperrors "github.com/passari/web-ui/pkg/util/errorutil"
)

// OverviewPath is the landing page of the web UI.
const OverviewPath = "/web-ui/overview/"

type overviewStep struct {
	Name  string
	Label string
}

var overviewSteps = []overviewStep{
	{"pending", "Pending preservation"},
	{"download_object", "Downloading"},
	{"create_sip", "Creating SIP"},
	{"submit_sip", "Submitting SIP"},
	{"confirm_sip", "Awaiting confirmation"},
	{"submitted", "Submitted"},
	{"preserved", "Preserved"},
	{"rejected", "Rejected"},
	{"frozen", "Frozen"},
	{"failed", "Failed"},
}

// PagesHandler serves the read-only pages of the web UI.
type PagesHandler struct {
	views    *PageRenderer
	objects  *service.ObjectService
	packages *service.PackageService
}

// NewPagesHandler constructs handler.
func NewPagesHandler(views *PageRenderer, objects *service.ObjectService, packages *service.PackageService) *PagesHandler {
	return &PagesHandler{views: views, objects: objects, packages: packages}
}

// Home redirects to the overview.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return c.Redirect(OverviewPath, fiber.StatusFound)
}

// Overview GET /web-ui/overview/.
func (h *PagesHandler) Overview(c *fiber.Ctx) error {
	return h.views.Render(c, "overview", fiber.Map{"Title": "Overview", "Steps": overviewSteps})
}

// SystemStatus GET /web-ui/system-status/.
func (h *PagesHandler) SystemStatus(c *fiber.Ctx) error {
	return h.views.Render(c, "system_status", fiber.Map{"Title": "System status"})
}

// ManageFrozenObjects GET /web-ui/manage-frozen-objects/.
func (h *PagesHandler) ManageFrozenObjects(c *fiber.Ctx) error {
	return h.views.Render(c, "manage_frozen_objects", fiber.Map{"Title": "Frozen objects"})
}

// FrozenObjectStatistics GET /web-ui/frozen-object-statistics/.
func (h *PagesHandler) FrozenObjectStatistics(c *fiber.Ctx) error {
	counts, err := h.objects.FreezeReasonCounts(c.UserContext())
	if err != nil {
		return err
	}
	return h.views.Render(c, "frozen_object_statistics", fiber.Map{
		"Title":        "Freeze reasons",
		"ReasonCounts": counts,
	})
}

// ManageSIPs GET /web-ui/manage-sips/.
func (h *PagesHandler) ManageSIPs(c *fiber.Ctx) error {
	return h.views.Render(c, "manage_sips", fiber.Map{"Title": "Manage SIPs"})
}

// ViewSIP GET /web-ui/manage-sips/:package_id.
func (h *PagesHandler) ViewSIP(c *fiber.Ctx) error {
	packageID, err := strconv.ParseInt(c.Params("package_id"), 10, 64)
	if err != nil {
		return apperrors.NewNotFound("package", nil)
	}
	sip, err := h.packages.Get(c.UserContext(), packageID)
	if err != nil {
		return err
	}
	return h.views.Render(c, "view_sip", fiber.Map{"Title": sip.Package.SIPFilename, "SIP": sip})
}

// ReenqueueSIP POST /web-ui/manage-sips/:package_id/reenqueue. The outcome
// is flashed on the SIP page.
func (h *PagesHandler) ReenqueueSIP(c *fiber.Ctx) error {
	packageID, err := strconv.ParseInt(c.Params("package_id"), 10, 64)
	if err != nil {
		return apperrors.NewNotFound("package", nil)
	}
	sip, err := h.packages.Get(c.UserContext(), packageID)
	if err != nil {
		return err
	}

	objectID := sip.Package.MuseumObjectID
	if err := h.objects.Reenqueue(c.UserContext(), actorFromContext(c), objectID); err != nil {
		msg, ok := userFacingMessage(err)
		if !ok {
			return err
		}
		web.AddFlash(c, "error", msg)
	} else {
		web.AddFlash(c, "success", fmt.Sprintf("Object %d was re-enqueued.", objectID))
	}
	return c.Redirect(fmt.Sprintf("/web-ui/manage-sips/%d", packageID), fiber.StatusFound)
}

// RedirectToSIP GET /web-ui/redirect-to-sip/:object_id/:sip_id.
func (h *PagesHandler) RedirectToSIP(c *fiber.Ctx) error {
	objectID, err := strconv.ParseInt(c.Params("object_id"), 10, 64)
	if err != nil {
		return apperrors.NewNotFound("package", nil)
	}
	pkg, err := h.packages.FindBySIPID(c.UserContext(), objectID, c.Params("sip_id"))
	if err != nil {
		return err
	}
	return c.Redirect(fmt.Sprintf("/web-ui/manage-sips/%d", pkg.ID), fiber.StatusFound)
}

// Success renders the page a form redirects to after a successful action.
// The message itself arrives as a flash.
func (h *PagesHandler) Success(title, back string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.views.Render(c, "success", fiber.Map{"Title": title, "Back": back})
	}
}
