package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost-api/internal/service"
)

type UserHandler struct {
	s service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{s: service}
}

func (h *UserHandler) GetUserInfo(c *fiber.Ctx) error {
	userID, err := service.ParseUserID(GetUserID(c))
	if err != nil {
		return err
	}

	userInfo, err := h.s.GetUserInfo(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return c.JSON(userInfo)
}
