package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

type CredentialsHandler struct {
	s service.CredentialsService
}

func NewCredentialsHandler(service service.CredentialsService) *CredentialsHandler {
	return &CredentialsHandler{s: service}
}

func (h *CredentialsHandler) SaveInstagram(c *fiber.Ctx) error {
	var req transfer.InstaCredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	id, created, err := h.s.SaveInstagram(c.UserContext(), userID, models.InstaCredentials{
		AccessToken: req.AccessTokens,
		IGUserID:    req.IGUserID,
	})
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(fiber.Map{"message": "Instagram credentials updated successfully"})
	}
	return c.JSON(fiber.Map{"message": "Instagram credentials saved", "id": id.Hex()})
}

func (h *CredentialsHandler) GetInstagram(c *fiber.Ctx) error {
	userID, err := authorizeUser(c, c.Params("user_id"))
	if err != nil {
		return err
	}

	creds, err := h.s.GetInstagram(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id":           userID.Hex(),
		"insta_credentials": creds,
	})
}

func (h *CredentialsHandler) SaveFacebook(c *fiber.Ctx) error {
	var req transfer.FacebookCredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	id, created, err := h.s.SaveFacebook(c.UserContext(), userID, models.FacebookCredentials{
		PageID:          req.PageID,
		FacebookAccess:  req.FacebookAccess,
		ExpiryTimestamp: req.ExpiryTimestamp,
	})
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(fiber.Map{"message": "Facebook credentials updated successfully"})
	}
	return c.JSON(fiber.Map{"message": "Facebook credentials saved", "id": id.Hex()})
}

func (h *CredentialsHandler) GetFacebook(c *fiber.Ctx) error {
	userID, err := authorizeUser(c, c.Params("user_id"))
	if err != nil {
		return err
	}

	creds, err := h.s.GetFacebook(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id":              userID.Hex(),
		"facebook_credentials": creds,
	})
}

func (h *CredentialsHandler) EditInstagram(c *fiber.Ctx) error {
	var req transfer.InstaCredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	changed, err := h.s.EditInstagram(c.UserContext(), userID, models.InstaCredentials{
		AccessToken: req.AccessTokens,
		IGUserID:    req.IGUserID,
	})
	if err != nil {
		return err
	}

	if !changed {
		return c.JSON(fiber.Map{"message": "No changes made"})
	}
	return c.JSON(fiber.Map{"message": "Instagram credentials updated successfully"})
}

func (h *CredentialsHandler) EditFacebook(c *fiber.Ctx) error {
	var req transfer.FacebookCredentialsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	changed, err := h.s.EditFacebook(c.UserContext(), userID, models.FacebookCredentials{
		PageID:          req.PageID,
		FacebookAccess:  req.FacebookAccess,
		ExpiryTimestamp: req.ExpiryTimestamp,
	})
	if err != nil {
		return err
	}

	if !changed {
		return c.JSON(fiber.Map{"message": "No changes made"})
	}
	return c.JSON(fiber.Map{"message": "Facebook credentials updated successfully"})
}

func (h *CredentialsHandler) SaveAll(c *fiber.Ctx) error {
	var req transfer.TenantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	id, err := h.s.SaveAll(c.UserContext(), userID, &req)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Credentials saved successfully", "id": id.Hex()})
}

func (h *CredentialsHandler) GetAll(c *fiber.Ctx) error {
	userID, err := authorizeUser(c, c.Params("user_id"))
	if err != nil {
		return err
	}

	tenant, err := h.s.GetAll(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user_id":              userID.Hex(),
		"insta_credentials":    tenant.InstaCredentials,
		"facebook_credentials": tenant.FacebookCredentials,
		"created_at":           tenant.CreatedAt,
	})
}

func (h *CredentialsHandler) Update(c *fiber.Ctx) error {
	var req transfer.TenantRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	if err := h.s.Update(c.UserContext(), userID, &req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Credentials updated successfully"})
}

func (h *CredentialsHandler) CheckTokenExpiry(c *fiber.Ctx) error {
	userID, err := authorizeUser(c, c.Params("user_id"))
	if err != nil {
		return err
	}

	status, err := h.s.CheckTokenExpiry(c.UserContext(), userID, time.Now().UTC())
	if err != nil {
		return err
	}

	return c.JSON(status)
}
