package transfer

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// LinkedInUserInfo is the OpenID Connect userinfo response from LinkedIn.
type LinkedInUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type AccountConnection struct {
	Platform       string
	AccountID      string
	AccountName    string
	ProfilePicture string
	AccessToken    string
	RefreshToken   string
	TokenExpiresAt *time.Time
}
