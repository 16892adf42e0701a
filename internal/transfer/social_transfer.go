package transfer

type ImagePostRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Caption     string `json:"caption"`
	Base64Image string `json:"base64_image" validate:"required"`
}

type VideoPostRequest struct {
	UserID      string `json:"user_id" validate:"required"`
	Caption     string `json:"caption"`
	Base64Video string `json:"base64_video" validate:"required"`
}
