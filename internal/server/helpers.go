package server

import (
	"strconv"

	"nuesa/internal/auth"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// currentPrincipal returns the authenticated principal. Handlers behind
// AuthRequired can rely on ok being true.
func currentPrincipal(c *fiber.Ctx) (auth.Principal, bool) {
	principal, ok := c.Locals(principalKey).(auth.Principal)
	return principal, ok
}

// optionalPrincipal returns a pointer to the principal when one is present
// and nil for anonymous requests.
func optionalPrincipal(c *fiber.Ctx) *auth.Principal {
	if principal, ok := currentPrincipal(c); ok {
		return &principal
	}
	return nil
}

// parseID reads a positive integer path parameter.
func parseID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+name)
	}
	return uint(id), nil
}

// parsePagination reads limit/offset query parameters with sane bounds.
func parsePagination(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultPageSize)
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset = c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
