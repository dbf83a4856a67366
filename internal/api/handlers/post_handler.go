package handlers

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ulot2/postflow/internal/service"
	"github.com/ulot2/postflow/internal/transfer"
)

type PostHandler struct {
	s service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	form, err := c.MultipartForm()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	pc := &transfer.PostCreation{
		WorkspaceID: int64(c.QueryInt("workspace_id", 0)),
		Content:     c.FormValue("content"),
		Platform:    c.FormValue("platform"),
		Status:      c.FormValue("status"),
		ScheduledAt: c.FormValue("scheduled_at"),
	}

	files := form.File["files"]

	postID, err := h.s.CreatePost(c.Context(), userID, pc, files)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post created successfully",
		"id":      postID,
	})
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("workspace_id", 0))
	postID := c.QueryInt("id", 0)

	if postID != 0 {
		post, err := h.s.PostInfo(c.Context(), userID, workspaceID, int64(postID))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to get post",
			})
		}

		return c.Status(fiber.StatusOK).JSON(post)
	}

	from := c.Query("from")
	to := c.Query("to")
	if from != "" && to != "" {
		fromTime, err1 := time.Parse(time.RFC3339, from)
		toTime, err2 := time.Parse(time.RFC3339, to)
		if err1 != nil || err2 != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid time range",
			})
		}

		posts, err := h.s.ListInRange(c.Context(), userID, workspaceID, fromTime, toTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Unable to list posts",
			})
		}

		return c.Status(fiber.StatusOK).JSON(posts)
	}

	posts, err := h.s.List(c.Context(), userID, workspaceID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to list posts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID := GetUserID(c)

	pu := &transfer.PostUpdate{
		PostID:      int64(c.QueryInt("id", 0)),
		WorkspaceID: int64(c.QueryInt("workspace_id", 0)),
		Content:     c.FormValue("content"),
		Status:      c.FormValue("status"),
		ScheduledAt: c.FormValue("scheduled_at"),
	}

	if err := h.s.Update(c.Context(), userID, pu); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post updated successfully",
	})
}

func (h *PostHandler) ReschedulePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("workspace_id", 0))
	postID := int64(c.QueryInt("id", 0))

	scheduledAt, err := time.Parse("2006-01-02T15:04", c.FormValue("scheduled_at"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid scheduled time",
		})
	}

	if err := h.s.Reschedule(c.Context(), userID, workspaceID, postID, scheduledAt); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to reschedule post",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Post rescheduled successfully",
	})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("workspace_id", 0))
	postID := int64(c.QueryInt("id", 0))

	if err := h.s.Remove(c.Context(), userID, workspaceID, postID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to remove post",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
