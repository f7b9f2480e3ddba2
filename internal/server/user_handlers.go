package server

import (
	"nuesa/internal/models"
	"nuesa/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMe handles GET /api/users/me
func (s *Server) GetMe(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	user, err := s.users.Get(c.UserContext(), principal.UserID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(user)
}

// UpdateMe handles PUT /api/users/me
func (s *Server) UpdateMe(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	var req service.UpdateUserInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.users.Update(c.UserContext(), principal, req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(user)
}

// DeleteMe handles DELETE /api/users/me
func (s *Server) DeleteMe(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	if err := s.users.Delete(c.UserContext(), principal); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyProfile handles GET /api/users/me/profile
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	profile, err := s.users.GetProfile(c.UserContext(), principal)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me/profile
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	var req service.ProfileInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.users.UpdateProfile(c.UserContext(), principal, req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(profile)
}

// ListUsers handles GET /api/admin/users
func (s *Server) ListUsers(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)

	users, err := s.users.List(c.UserContext(), limit, offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"users": users})
}

// PromoteUser handles POST /api/admin/users/:id/promote
func (s *Server) PromoteUser(c *fiber.Ctx) error {
	return s.setAdminFlag(c, true)
}

// DemoteUser handles POST /api/admin/users/:id/demote
func (s *Server) DemoteUser(c *fiber.Ctx) error {
	return s.setAdminFlag(c, false)
}

func (s *Server) setAdminFlag(c *fiber.Ctx, isAdmin bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	user, err := s.users.SetAdmin(c.UserContext(), id, isAdmin)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(user)
}
