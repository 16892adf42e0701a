package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/maheshrc27/crosspost-api/internal/models"
	"github.com/maheshrc27/crosspost-api/internal/repository"
	"github.com/maheshrc27/crosspost-api/internal/transfer"
	"github.com/maheshrc27/crosspost-api/pkg/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TokenStatusValid    = "Token is valid"
	TokenStatusExpiring = "Token expiring soon!"
	TokenStatusExpired  = "Token has expired"

	tokenExpiringWithin = 3 * 24 * time.Hour
)

type CredentialsService interface {
	// SaveInstagram replaces the Instagram sub-document, creating the
	// tenant when needed. created reports whether a new tenant was made.
	SaveInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (id primitive.ObjectID, created bool, err error)
	SaveFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (id primitive.ObjectID, created bool, err error)
	GetInstagram(ctx context.Context, userID primitive.ObjectID) (*models.InstaCredentials, error)
	GetFacebook(ctx context.Context, userID primitive.ObjectID) (*models.FacebookCredentials, error)
	// EditInstagram and EditFacebook report whether anything changed.
	EditInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (bool, error)
	EditFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (bool, error)
	SaveAll(ctx context.Context, userID primitive.ObjectID, req *transfer.TenantRequest) (primitive.ObjectID, error)
	GetAll(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, error)
	Update(ctx context.Context, userID primitive.ObjectID, req *transfer.TenantRequest) error
	CheckTokenExpiry(ctx context.Context, userID primitive.ObjectID, at time.Time) (*transfer.TokenExpiryStatus, error)
	// Resolve returns the unsealed tenant document.
	Resolve(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, bool, error)
}

type credentialsService struct {
	t      repository.TenantRepository
	cipher *utils.TokenCipher
}

func NewCredentialsService(t repository.TenantRepository, cipher *utils.TokenCipher) CredentialsService {
	return &credentialsService{
		t:      t,
		cipher: cipher,
	}
}

func (s *credentialsService) SaveInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (primitive.ObjectID, bool, error) {
	sealed, err := s.sealInstagram(creds)
	if err != nil {
		return primitive.NilObjectID, false, err
	}

	tenant, isExist, err := s.t.GetByUserID(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if isExist {
		if _, err := s.t.SetInstagram(ctx, userID, sealed); err != nil {
			return primitive.NilObjectID, false, err
		}
		return tenant.ID, false, nil
	}

	id, err := s.t.Create(ctx, &models.Tenant{
		UserID:           userID,
		InstaCredentials: &sealed,
		CreatedAt:        now(),
	})
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return id, true, nil
}

func (s *credentialsService) SaveFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (primitive.ObjectID, bool, error) {
	sealed, err := s.sealFacebook(creds)
	if err != nil {
		return primitive.NilObjectID, false, err
	}

	tenant, isExist, err := s.t.GetByUserID(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	if isExist {
		if _, err := s.t.SetFacebook(ctx, userID, sealed); err != nil {
			return primitive.NilObjectID, false, err
		}
		return tenant.ID, false, nil
	}

	id, err := s.t.Create(ctx, &models.Tenant{
		UserID:              userID,
		FacebookCredentials: &sealed,
		CreatedAt:           now(),
	})
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return id, true, nil
}

func (s *credentialsService) GetInstagram(ctx context.Context, userID primitive.ObjectID) (*models.InstaCredentials, error) {
	tenant, isExist, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("User not found")
	}
	if tenant.InstaCredentials == nil {
		return nil, notFound("Instagram credentials not found")
	}
	return tenant.InstaCredentials, nil
}

func (s *credentialsService) GetFacebook(ctx context.Context, userID primitive.ObjectID) (*models.FacebookCredentials, error) {
	tenant, isExist, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("User not found")
	}
	if tenant.FacebookCredentials == nil {
		return nil, notFound("Facebook credentials not found")
	}
	return tenant.FacebookCredentials, nil
}

func (s *credentialsService) EditInstagram(ctx context.Context, userID primitive.ObjectID, creds models.InstaCredentials) (bool, error) {
	tenant, isExist, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	if !isExist {
		return false, notFound("User credentials not found")
	}
	if tenant.InstaCredentials != nil && *tenant.InstaCredentials == creds {
		return false, nil
	}

	token, err := s.cipher.Seal(creds.AccessToken)
	if err != nil {
		return false, err
	}

	_, modified, err := s.t.Patch(ctx, userID, models.CredentialsPatch{
		InstaAccessToken: &token,
		IGUserID:         &creds.IGUserID,
	}, false)
	if err != nil {
		return false, err
	}
	return modified, nil
}

func (s *credentialsService) EditFacebook(ctx context.Context, userID primitive.ObjectID, creds models.FacebookCredentials) (bool, error) {
	tenant, isExist, err := s.Resolve(ctx, userID)
	if err != nil {
		return false, err
	}
	if !isExist {
		return false, notFound("User credentials not found")
	}

	patch := models.CredentialsPatch{
		PageID: &creds.PageID,
	}
	if creds.ExpiryTimestamp > 0 {
		patch.ExpiryTimestamp = &creds.ExpiryTimestamp
	}

	if existing := tenant.FacebookCredentials; existing != nil &&
		existing.PageID == creds.PageID &&
		existing.FacebookAccess == creds.FacebookAccess &&
		(patch.ExpiryTimestamp == nil || existing.ExpiryTimestamp == creds.ExpiryTimestamp) {
		return false, nil
	}

	token, err := s.cipher.Seal(creds.FacebookAccess)
	if err != nil {
		return false, err
	}
	patch.FacebookAccess = &token

	_, modified, err := s.t.Patch(ctx, userID, patch, false)
	if err != nil {
		return false, err
	}
	return modified, nil
}

func (s *credentialsService) SaveAll(ctx context.Context, userID primitive.ObjectID, req *transfer.TenantRequest) (primitive.ObjectID, error) {
	_, isExist, err := s.t.GetByUserID(ctx, userID)
	if err != nil {
		return primitive.NilObjectID, err
	}
	if isExist {
		return primitive.NilObjectID, NewError(http.StatusConflict, "Credentials already exist for this user")
	}

	var insta models.InstaCredentials
	if c := req.InstaCredentials; c != nil {
		insta.AccessToken = deref(c.AccessTokens)
		insta.IGUserID = deref(c.IGUserID)
	}
	var facebook models.FacebookCredentials
	if c := req.FacebookCredentials; c != nil {
		facebook.PageID = deref(c.PageID)
		facebook.FacebookAccess = deref(c.FacebookAccess)
		if c.ExpiryTimestamp != nil {
			facebook.ExpiryTimestamp = *c.ExpiryTimestamp
		}
	}

	if insta, err = s.sealInstagram(insta); err != nil {
		return primitive.NilObjectID, err
	}
	if facebook, err = s.sealFacebook(facebook); err != nil {
		return primitive.NilObjectID, err
	}

	return s.t.Create(ctx, &models.Tenant{
		UserID:              userID,
		InstaCredentials:    &insta,
		FacebookCredentials: &facebook,
		CreatedAt:           now(),
	})
}

func (s *credentialsService) GetAll(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, error) {
	tenant, isExist, err := s.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("User not found")
	}
	return tenant, nil
}

func (s *credentialsService) Update(ctx context.Context, userID primitive.ObjectID, req *transfer.TenantRequest) error {
	var patch models.CredentialsPatch
	if c := req.InstaCredentials; c != nil {
		patch.InstaAccessToken = c.AccessTokens
		patch.IGUserID = c.IGUserID
	}
	if c := req.FacebookCredentials; c != nil {
		patch.PageID = c.PageID
		patch.FacebookAccess = c.FacebookAccess
		patch.ExpiryTimestamp = c.ExpiryTimestamp
	}

	if patch.Empty() {
		return badRequest("No credentials provided to update")
	}

	var err error
	if patch.InstaAccessToken, err = s.sealPtr(patch.InstaAccessToken); err != nil {
		return err
	}
	if patch.FacebookAccess, err = s.sealPtr(patch.FacebookAccess); err != nil {
		return err
	}

	matched, _, err := s.t.Patch(ctx, userID, patch, true)
	if err != nil {
		return err
	}
	if !matched {
		return notFound("Credentials not found for the given user")
	}
	return nil
}

func (s *credentialsService) CheckTokenExpiry(ctx context.Context, userID primitive.ObjectID, at time.Time) (*transfer.TokenExpiryStatus, error) {
	tenant, isExist, err := s.t.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !isExist {
		return nil, notFound("User not found")
	}
	if tenant.FacebookCredentials == nil || tenant.FacebookCredentials.ExpiryTimestamp == 0 {
		return nil, notFound("Expiry timestamp not saved for this user")
	}

	return TokenExpiry(userID, tenant.FacebookCredentials.ExpiryTimestamp, at), nil
}

// TokenExpiry classifies a unix expiry timestamp relative to at.
func TokenExpiry(userID primitive.ObjectID, expiry int64, at time.Time) *transfer.TokenExpiryStatus {
	expiresAt := time.Unix(expiry, 0).UTC()
	remaining := expiresAt.Sub(at)

	status := TokenStatusValid
	switch {
	case remaining <= 0:
		status = TokenStatusExpired
	case remaining <= tokenExpiringWithin:
		status = TokenStatusExpiring
	}

	return &transfer.TokenExpiryStatus{
		UserID:        userID.Hex(),
		ExpiryDate:    expiresAt.Format(time.RFC3339),
		DaysRemaining: int(math.Floor(remaining.Hours() / 24)),
		Status:        status,
	}
}

func (s *credentialsService) Resolve(ctx context.Context, userID primitive.ObjectID) (*models.Tenant, bool, error) {
	tenant, isExist, err := s.t.GetByUserID(ctx, userID)
	if err != nil || !isExist {
		return nil, isExist, err
	}

	if c := tenant.InstaCredentials; c != nil {
		if c.AccessToken, err = s.cipher.Open(c.AccessToken); err != nil {
			return nil, false, fmt.Errorf("open instagram token: %w", err)
		}
	}
	if c := tenant.FacebookCredentials; c != nil {
		if c.FacebookAccess, err = s.cipher.Open(c.FacebookAccess); err != nil {
			return nil, false, fmt.Errorf("open facebook token: %w", err)
		}
	}

	return tenant, true, nil
}

func (s *credentialsService) sealInstagram(c models.InstaCredentials) (models.InstaCredentials, error) {
	token, err := s.cipher.Seal(c.AccessToken)
	if err != nil {
		slog.Error("failed to seal instagram token", "error", err)
		return c, err
	}
	c.AccessToken = token
	return c, nil
}

func (s *credentialsService) sealFacebook(c models.FacebookCredentials) (models.FacebookCredentials, error) {
	token, err := s.cipher.Seal(c.FacebookAccess)
	if err != nil {
		slog.Error("failed to seal facebook token", "error", err)
		return c, err
	}
	c.FacebookAccess = token
	return c, nil
}

func (s *credentialsService) sealPtr(v *string) (*string, error) {
	if v == nil {
		return nil, nil
	}
	sealed, err := s.cipher.Seal(*v)
	if err != nil {
		return nil, err
	}
	return &sealed, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
