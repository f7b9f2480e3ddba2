package server

import (
	"nuesa/internal/models"
	"nuesa/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateApplication handles POST /api/applications
func (s *Server) CreateApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	var req service.CreateApplicationInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applications.Create(c.UserContext(), principal, req)
	if err != nil {
		// A duplicate application is a client mistake here, not a race on a
		// shared resource, so it reports as a 400.
		if models.HasCode(err, models.CodeConflict) {
			return models.RespondWithError(c, fiber.StatusBadRequest, err)
		}
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(app)
}

// ListApplications handles GET /api/applications
func (s *Server) ListApplications(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	limit, offset := parsePagination(c)
	status := models.ApplicationStatus(c.Query("status"))

	apps, total, err := s.applications.List(c.UserContext(), principal, status, limit, offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return c.JSON(fiber.Map{
		"applications": apps,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetApplication handles GET /api/applications/:id
func (s *Server) GetApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	app, err := s.applications.Get(c.UserContext(), principal, id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(app)
}

// UpdateApplication handles PUT /api/applications/:id
func (s *Server) UpdateApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.UpdateApplicationInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applications.Update(c.UserContext(), principal, id, req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(app)
}

// SubmitApplication handles POST /api/applications/:id/submit
func (s *Server) SubmitApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	app, err := s.applications.Submit(c.UserContext(), principal, id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(app)
}

// WithdrawApplication handles POST /api/applications/:id/withdraw
func (s *Server) WithdrawApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	app, err := s.applications.Withdraw(c.UserContext(), principal, id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(app)
}

// DeleteApplication handles DELETE /api/applications/:id
func (s *Server) DeleteApplication(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.applications.Delete(c.UserContext(), principal, id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Application deleted"})
}
