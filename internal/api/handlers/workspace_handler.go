package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ulot2/postflow/internal/service"
)

type WorkspaceHandler struct {
	s service.WorkspaceService
}

func NewWorkspaceHandler(s service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{s: s}
}

func (h *WorkspaceHandler) CreateWorkspace(c *fiber.Ctx) error {
	userID := GetUserID(c)

	name := c.FormValue("name")
	description := c.FormValue("description")
	wsType := c.FormValue("type")

	id, err := h.s.Create(c.Context(), userID, name, description, wsType)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Workspace created successfully",
		"id":      id,
	})
}

func (h *WorkspaceHandler) ListWorkspaces(c *fiber.Ctx) error {
	userID := GetUserID(c)

	workspaces, err := h.s.List(c.Context(), userID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list workspaces",
		})
	}

	return c.Status(fiber.StatusOK).JSON(workspaces)
}

func (h *WorkspaceHandler) RemoveWorkspace(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("id", 0))

	if err := h.s.Remove(c.Context(), userID, workspaceID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove workspace",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
