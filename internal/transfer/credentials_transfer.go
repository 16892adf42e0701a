package transfer

type InstaCredentialsRequest struct {
	UserID       string `json:"user_id" validate:"required"`
	AccessTokens string `json:"ACCESS_TOKENS" validate:"required"`
	IGUserID     string `json:"IG_USER_ID" validate:"required"`
}

type FacebookCredentialsRequest struct {
	UserID          string `json:"user_id" validate:"required"`
	PageID          string `json:"PAGE_ID" validate:"required"`
	FacebookAccess  string `json:"FACEBOOK_ACCESS" validate:"required"`
	ExpiryTimestamp int64  `json:"expiry_timestamp,omitempty" validate:"gte=0"`
}

// Optional sub-documents used by save-credentials and update-credentials.
// Nil fields mean "not provided".
type InstaCredentialsPatch struct {
	AccessTokens *string `json:"ACCESS_TOKENS"`
	IGUserID     *string `json:"IG_USER_ID"`
}

type FacebookCredentialsPatch struct {
	PageID          *string `json:"PAGE_ID"`
	FacebookAccess  *string `json:"FACEBOOK_ACCESS"`
	ExpiryTimestamp *int64  `json:"expiry_timestamp"`
}

type TenantRequest struct {
	UserID              string                    `json:"user_id" validate:"required"`
	InstaCredentials    *InstaCredentialsPatch    `json:"insta_credentials"`
	FacebookCredentials *FacebookCredentialsPatch `json:"facebook_credentials"`
}

type TokenExpiryStatus struct {
	UserID        string `json:"user_id"`
	ExpiryDate    string `json:"expiry_date"`
	DaysRemaining int    `json:"days_remaining"`
	Status        string `json:"status"`
}
