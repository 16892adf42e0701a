package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"

	config "github.com/maheshrc27/crosspost-api/configs"
	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthService interface {
	Signup(ctx context.Context, req *transfer.SignupRequest) (primitive.ObjectID, error)
	Signin(ctx context.Context, req *transfer.SigninRequest) (*transfer.SigninResponse, error)
	SendVerification(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, req *transfer.VerifyOTPRequest) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, req *transfer.ResetPasswordRequest) (*transfer.ResetPasswordResponse, error)
	UpdatePassword(ctx context.Context, req *transfer.UpdatePasswordRequest) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

type authService struct {
	cfg  config.Config
	u    repository.UserRepository
	mail MailService
}

func NewAuthService(cfg config.Config, u repository.UserRepository, mail MailService) AuthService {
	return &authService{
		cfg:  cfg,
		u:    u,
		mail: mail,
	}
}

func (s *authService) Signup(ctx context.Context, req *transfer.SignupRequest) (primitive.ObjectID, error) {
	_, isExist, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if isExist {
		return primitive.NilObjectID, badRequest("Email is already registered")
	}

	if req.Password != req.PasswordConfirm {
		return primitive.NilObjectID, unauthorized("Password doesn't match")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return primitive.NilObjectID, err
	}

	t := now()
	id, err := s.u.Create(ctx, &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hash,
		Role:      models.RoleUser,
		Verified:  false,
		Status:    models.UserStatusActive,
		CreatedAt: t,
		UpdatedAt: t,
	})
	if err != nil {
		return primitive.NilObjectID, err
	}

	slog.Info("user registered", "user_id", id.Hex())
	return id, nil
}

func (s *authService) Signin(ctx context.Context, req *transfer.SigninRequest) (*transfer.SigninResponse, error) {
	user, isExist, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, badRequest("Incorrect Email")
	}

	if !checkPassword(user.Password, req.Password) {
		return nil, badRequest("Incorrect Password")
	}

	if user.Status != models.UserStatusActive {
		return nil, badRequest("Your account is not active, please contact the administrator")
	}

	access, refresh, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, err
	}

	return &transfer.SigninResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Role:         user.Role,
		Verified:     user.Verified,
		UserEmail:    user.Email,
		UserID:       user.ID.Hex(),
	}, nil
}

func (s *authService) SendVerification(ctx context.Context, email string) error {
	if email == "" {
		return unauthorized("Invalid Email")
	}

	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !isExist {
		return notFound("User not found.")
	}

	subject := fmt.Sprintf("Welcome to %s! Please Verify Your Email", s.cfg.AppName)
	if err := s.sendCode(ctx, user, subject, TemplateVerification); err != nil {
		return NewError(http.StatusInternalServerError, "Failed to send verification email.")
	}
	return nil
}

func (s *authService) VerifyOTP(ctx context.Context, req *transfer.VerifyOTPRequest) error {
	user, isExist, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !isExist {
		return notFound("User not found.")
	}

	if !user.HasVerificationCode() {
		return badRequest("No OTP found. Please request a new one.")
	}

	if subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(req.OTP)) != 1 {
		return badRequest("Invalid OTP.")
	}

	return s.u.MarkVerified(ctx, user.Email)
}

func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return unauthorized("Invalid Email")
	}

	user, isExist, err := s.u.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !isExist {
		// Unknown addresses get the same answer as known ones.
		slog.Info("password reset requested for unknown email")
		return nil
	}

	if err := s.sendCode(ctx, user, "Password Reset Confirmation", TemplateForgotPass); err != nil {
		return NewError(http.StatusInternalServerError, "There was an error sending email setup")
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, req *transfer.ResetPasswordRequest) (*transfer.ResetPasswordResponse, error) {
	if req.Password != req.PasswordConfirm {
		return nil, badRequest("Passwords do not match")
	}

	user, isExist, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("User not found")
	}

	if !user.Verified {
		return nil, NewError(http.StatusForbidden, "Please verify your email before resetting password")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	if err := s.u.UpdatePassword(ctx, user.ID, hash, true); err != nil {
		slog.Error("failed to reset password", "error", err)
		return nil, NewError(http.StatusInternalServerError, "Error occurred while resetting password")
	}

	access, refresh, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, err
	}

	return &transfer.ResetPasswordResponse{
		Status:       "success",
		Message:      "Password reset successfully",
		AccessToken:  access,
		RefreshToken: refresh,
		UserID:       user.ID.Hex(),
		Email:        user.Email,
		Role:         user.Role,
		Verified:     user.Verified,
	}, nil
}

func (s *authService) UpdatePassword(ctx context.Context, req *transfer.UpdatePasswordRequest) error {
	if isBlank(req.OldPassword) {
		return unauthorized("Old Password should not be empty")
	}
	if isBlank(req.Password) {
		return unauthorized("Password should not be empty")
	}
	if req.Password != req.PasswordConfirm {
		return unauthorized("Password doesn't match")
	}

	user, isExist, err := s.u.GetByEmail(ctx, req.Email)
	if err != nil {
		return err
	}
	if !isExist {
		slog.Info("password update requested for unknown email")
		return nil
	}

	if !checkPassword(user.Password, req.OldPassword) {
		return unauthorized("Invalid old password")
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return err
	}

	if err := s.u.UpdatePassword(ctx, user.ID, hash, false); err != nil {
		slog.Error("failed to update password", "error", err)
		return NewError(http.StatusInternalServerError, "There was an error in reset password")
	}
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := utils.ValidateToken(s.cfg.SecretKey, refreshToken, utils.TokenTypeRefresh)
	if err != nil {
		return "", unauthorized("Invalid refresh token")
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return "", unauthorized("Invalid refresh token")
	}

	user, isExist, err := s.u.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !isExist || user.Status != models.UserStatusActive {
		return "", unauthorized("Invalid refresh token")
	}

	return utils.GenerateToken(s.cfg.SecretKey, user.ID.Hex(), utils.TokenTypeAccess, s.cfg.AccessTokenTTL)
}

// sendCode stores a fresh OTP on the user and mails it. The code is
// cleared again when the mail cannot be handed off.
func (s *authService) sendCode(ctx context.Context, user *models.User, subject, tmpl string) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}

	if err := s.u.SetVerificationCode(ctx, user.Email, &code); err != nil {
		return err
	}

	err = s.mail.Send(ctx, &Mail{
		To:       []string{user.Email},
		Subject:  subject,
		Template: tmpl,
		Data: map[string]string{
			"name": user.Name,
			"app":  s.cfg.AppName,
			"code": code,
		},
	})
	if err != nil {
		slog.Error("failed to send code", "template", tmpl, "error", err)
		if clearErr := s.u.SetVerificationCode(ctx, user.Email, nil); clearErr != nil {
			slog.Error("failed to clear verification code", "error", clearErr)
		}
		return err
	}

	return nil
}

func (s *authService) issueTokens(userID primitive.ObjectID) (string, string, error) {
	access, err := utils.GenerateToken(s.cfg.SecretKey, userID.Hex(), utils.TokenTypeAccess, s.cfg.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := utils.GenerateToken(s.cfg.SecretKey, userID.Hex(), utils.TokenTypeRefresh, s.cfg.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}
