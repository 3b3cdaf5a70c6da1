package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicportal/portal-auth/internal/api/middleware"
	"github.com/clinicportal/portal-auth/internal/core/domain"
)

// Section is one dashboard area of the portal and the effective roles that
// may open it.
type Section struct {
	Key   string
	Title string
	Roles []domain.EffectiveRole
}

// Sections is the portal's route table. Every allow-list uses effective roles.
var Sections = []Section{
	{
		Key:   "patients",
		Title: "Patients",
		Roles: []domain.EffectiveRole{domain.EffectiveDoctor, domain.EffectiveStaff, domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
	{
		Key:   "appointments",
		Title: "Appointments",
		Roles: []domain.EffectiveRole{domain.EffectivePatient, domain.EffectiveDoctor, domain.EffectiveStaff, domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
	{
		Key:   "lab-reports",
		Title: "Lab reports",
		Roles: []domain.EffectiveRole{domain.EffectiveLab, domain.EffectiveDoctor, domain.EffectivePatient, domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
	{
		Key:   "prescriptions",
		Title: "Prescriptions",
		Roles: []domain.EffectiveRole{domain.EffectivePharmacy, domain.EffectiveDoctor, domain.EffectivePatient, domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
	{
		Key:   "billing",
		Title: "Billing",
		Roles: []domain.EffectiveRole{domain.EffectiveAccountant, domain.EffectiveStaff, domain.EffectivePatient, domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
	{
		Key:   "admin",
		Title: "Administration",
		Roles: []domain.EffectiveRole{domain.EffectiveAdmin, domain.EffectiveSuperAdmin},
	},
}

type sectionResponse struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Path  string `json:"path"`
}

type sectionViewResponse struct {
	Section string `json:"section"`
	Title   string `json:"title"`
	Role    string `json:"role"`
	Name    string `json:"name"`
}

// PortalHandler serves the role-gated dashboard sections.
type PortalHandler struct{}

func NewPortalHandler() *PortalHandler {
	return &PortalHandler{}
}

// Index lists the sections the caller may open.
//
// @Summary      Available portal sections
// @Tags         portal
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   sectionResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/portal [get]
func (h *PortalHandler) Index(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	out := make([]sectionResponse, 0, len(Sections))
	for _, s := range Sections {
		if middleware.NewAllowList(s.Roles...).Admits(p.EffectiveRole) {
			out = append(out, sectionResponse{Key: s.Key, Title: s.Title, Path: "/api/portal/" + s.Key})
		}
	}
	return c.JSON(http.StatusOK, out)
}

// View returns the handler for one section. The route must be guarded by
// AuthorizeRoles(section.Roles...).
//
// @Summary      Open a portal section
// @Tags         portal
// @Produce      json
// @Security     BearerAuth
// @Param        section  path      string  true  "Section key"
// @Success      200      {object}  sectionViewResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Router       /api/portal/{section} [get]
func (h *PortalHandler) View(section Section) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, err := ctxPrincipal(c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, sectionViewResponse{
			Section: section.Key,
			Title:   section.Title,
			Role:    string(p.EffectiveRole),
			Name:    p.Name,
		})
	}
}
