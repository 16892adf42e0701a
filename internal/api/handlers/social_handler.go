package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

type SocialHandler struct {
	s service.PostService
}

func NewSocialHandler(service service.PostService) *SocialHandler {
	return &SocialHandler{s: service}
}

func (h *SocialHandler) UploadImage(c *fiber.Ctx) error {
	var req transfer.ImagePostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	post, err := h.s.PublishImage(c.UserContext(), userID, req.Caption, req.Base64Image)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Upload successful",
		"data":    post,
	})
}

func (h *SocialHandler) UploadVideo(c *fiber.Ctx) error {
	var req transfer.VideoPostRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID, err := authorizeUser(c, req.UserID)
	if err != nil {
		return err
	}

	post, err := h.s.PublishVideo(c.UserContext(), userID, req.Caption, req.Base64Video)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Video upload successful",
		"data":    post,
	})
}

func (h *SocialHandler) ListPosts(c *fiber.Ctx) error {
	userID, err := authorizeUser(c, c.Params("user_id"))
	if err != nil {
		return err
	}

	posts, err := h.s.List(c.UserContext(), userID, int64(c.QueryInt("limit", service.DefaultPostListLimit)))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": posts})
}
