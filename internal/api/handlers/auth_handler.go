package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/crosspost-api/internal/service"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
)

type AuthHandler struct {
	s service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{s: service}
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req transfer.SignupRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	userID, err := h.s.Signup(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":  "success",
		"user_id": userID.Hex(),
	})
}

func (h *AuthHandler) Signin(c *fiber.Ctx) error {
	var req transfer.SigninRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.Signin(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *AuthHandler) SendVerification(c *fiber.Ctx) error {
	var req transfer.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.s.SendVerification(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Verification code successfully sent to your email",
	})
}

func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req transfer.VerifyOTPRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.s.VerifyOTP(c.UserContext(), &req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "OTP verification successful. You can now sign in.",
	})
}

func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req transfer.EmailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.s.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password reset code successfully sent to your email setup",
	})
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req transfer.ResetPasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	resp, err := h.s.ResetPassword(c.UserContext(), &req)
	if err != nil {
		return err
	}

	return c.JSON(resp)
}

func (h *AuthHandler) UpdatePassword(c *fiber.Ctx) error {
	var req transfer.UpdatePasswordRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := h.s.UpdatePassword(c.UserContext(), &req); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password updated successfully",
	})
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req transfer.RefreshRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	accessToken, err := h.s.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"access_token": accessToken,
	})
}
