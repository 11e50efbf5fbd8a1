package dto

// RegisterInput is shared by self registration and admin creation.
// Avatar is optional and may be an http(s) URL or a base64 data URI.
type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Avatar          string `json:"avatar,omitempty" validate:"omitempty,avatar"`
}

// SocialAuthInput carries the identity asserted by a social provider. IDToken is
// required when provider verification is enabled.
type SocialAuthInput struct {
	Email   string `json:"email" validate:"omitempty,email"`
	Avatar  string `json:"avatar,omitempty" validate:"omitempty,avatar"`
	IDToken string `json:"id_token,omitempty"`
}
