package server

import (
	"nuesa/internal/models"
	"nuesa/internal/repository"
	"nuesa/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListOpportunities handles GET /api/opportunities
func (s *Server) ListOpportunities(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	filter := repository.OpportunityFilter{
		Type:            models.OpportunityType(c.Query("type")),
		Organization:    c.Query("organization"),
		FeaturedOnly:    c.QueryBool("featured", false),
		IncludeInactive: c.QueryBool("include_inactive", false),
	}

	opps, total, err := s.opportunities.List(c.UserContext(), optionalPrincipal(c), filter, limit, offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return c.JSON(fiber.Map{
		"opportunities": opps,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// FeaturedOpportunities handles GET /api/opportunities/featured
func (s *Server) FeaturedOpportunities(c *fiber.Ctx) error {
	limit, _ := parsePagination(c)

	opps, err := s.opportunities.Featured(c.UserContext(), limit)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"opportunities": opps})
}

// SearchOpportunities handles GET /api/opportunities/search
func (s *Server) SearchOpportunities(c *fiber.Ctx) error {
	keyword := c.Query("q")
	if keyword == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Search query 'q' is required"))
	}

	limit, offset := parsePagination(c)
	filter := repository.OpportunityFilter{
		Keyword: keyword,
		Type:    models.OpportunityType(c.Query("type")),
	}

	opps, total, err := s.opportunities.List(c.UserContext(), optionalPrincipal(c), filter, limit, offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return c.JSON(fiber.Map{
		"opportunities": opps,
		"total":         total,
	})
}

// GetOpportunity handles GET /api/opportunities/:id
func (s *Server) GetOpportunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	principal := optionalPrincipal(c)
	opp, err := s.opportunities.Get(c.UserContext(), principal, id)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	if principal != nil {
		saved, err := s.opportunityRepo.IsSaved(c.UserContext(), principal.UserID, id)
		if err == nil {
			return c.JSON(fiber.Map{"opportunity": opp, "is_saved": saved})
		}
	}
	return c.JSON(fiber.Map{"opportunity": opp, "is_saved": false})
}

// CreateOpportunity handles POST /api/admin/opportunities
func (s *Server) CreateOpportunity(c *fiber.Ctx) error {
	var req service.OpportunityInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	opp, err := s.opportunities.Create(c.UserContext(), req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(opp)
}

// UpdateOpportunity handles PUT /api/admin/opportunities/:id
func (s *Server) UpdateOpportunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.OpportunityInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	opp, err := s.opportunities.Update(c.UserContext(), id, req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(opp)
}

// DeleteOpportunity handles DELETE /api/admin/opportunities/:id
func (s *Server) DeleteOpportunity(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opportunities.Delete(c.UserContext(), id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SaveOpportunity handles POST /api/opportunities/:id/save
func (s *Server) SaveOpportunity(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opportunities.SaveOpportunity(c.UserContext(), principal, id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Opportunity saved"})
}

// UnsaveOpportunity handles DELETE /api/opportunities/:id/save
func (s *Server) UnsaveOpportunity(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.opportunities.UnsaveOpportunity(c.UserContext(), principal, id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Opportunity removed from saved"})
}

// ListSavedOpportunities handles GET /api/opportunities/saved/list
func (s *Server) ListSavedOpportunities(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	opps, err := s.opportunities.ListSaved(c.UserContext(), principal)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"opportunities": opps})
}

// RateOpportunity handles POST /api/opportunities/:id/rate
func (s *Server) RateOpportunity(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req service.RateOpportunityInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	rating, err := s.opportunities.Rate(c.UserContext(), principal, id, req)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(rating)
}
