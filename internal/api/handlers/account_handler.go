package handlers

import (
	"fmt"
	"log"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/ulot2/postflow/configs"
	"github.com/ulot2/postflow/internal/models"
	"github.com/ulot2/postflow/internal/service"
	"github.com/ulot2/postflow/pkg/utils"
)

type AccountHandler struct {
	s   service.AccountService
	cfg config.Config
}

func NewAccountHandler(s service.AccountService, cfg config.Config) *AccountHandler {
	return &AccountHandler{s: s, cfg: cfg}
}

func (h *AccountHandler) AddSocialAccount(c *fiber.Ctx) error {
	platform := c.Params("platform")
	// The state round-trips the session token and target workspace through the
	// provider.
	state := fmt.Sprintf("%s|%s", c.Query("state"), c.Query("workspace_id"))

	authURL := h.s.AuthURL(c.Context(), platform, state)
	if authURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported platform",
		})
	}

	return c.Redirect(authURL)
}

func (h *AccountHandler) CallbackHandler(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	platform := c.Params("platform")

	tokenString, workspacePart, ok := strings.Cut(state, "|")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid state",
		})
	}

	claims, err := utils.ValidateToken(h.cfg.SecretKey, tokenString)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to validate user",
		})
	}

	workspaceID, err := strconv.ParseInt(workspacePart, 10, 64)
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid workspace",
		})
	}

	switch platform {
	case models.PlatformLinkedIn:
		if err := h.s.LinkedInCallback(c.Context(), code, userID, workspaceID); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "something went wrong",
			})
		}
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unsupported platform",
		})
	}

	redirectURL := fmt.Sprintf("%s/dashboard/accounts", h.cfg.FrontendURL)
	return c.Redirect(redirectURL, fiber.StatusTemporaryRedirect)
}

func (h *AccountHandler) ListSocialAccounts(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("workspace_id", 0))

	accountList, err := h.s.List(c.Context(), userID, workspaceID)
	if err != nil {
		log.Println(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch social accounts",
		})
	}

	return c.Status(fiber.StatusOK).JSON(accountList)
}

func (h *AccountHandler) DeleteSocialAccount(c *fiber.Ctx) error {
	userID := GetUserID(c)
	workspaceID := int64(c.QueryInt("workspace_id", 0))
	accountID := c.QueryInt("id", 0)

	err := h.s.Disconnect(c.Context(), userID, workspaceID, int64(accountID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to delete social account",
		})
	}

	return c.SendStatus(fiber.StatusOK)
}
