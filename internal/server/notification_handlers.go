package server

import (
	"nuesa/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ListNotifications handles GET /api/notifications
func (s *Server) ListNotifications(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	limit, offset := parsePagination(c)
	unreadOnly := c.QueryBool("unread", false)

	notes, total, err := s.notificationRepo.ListByUser(c.UserContext(), principal.UserID, unreadOnly, limit, offset)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}

	return c.JSON(fiber.Map{
		"notifications": notes,
		"total":         total,
	})
}

// UnreadNotificationCount handles GET /api/notifications/unread-count
func (s *Server) UnreadNotificationCount(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	count, err := s.notificationRepo.UnreadCount(c.UserContext(), principal.UserID)
	if err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"unread_count": count})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := s.notificationRepo.MarkRead(c.UserContext(), principal.UserID, id); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead handles POST /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	principal, _ := currentPrincipal(c)

	if err := s.notificationRepo.MarkAllRead(c.UserContext(), principal.UserID); err != nil {
		return models.RespondWithError(c, models.StatusFor(err), err)
	}
	return c.JSON(fiber.Map{"message": "All notifications marked as read"})
}
