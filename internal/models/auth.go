package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the access token payload issued by the external
// identity provider. The service validates tokens but never issues them.
type JWTClaims struct {
	UserID   string    `json:"user_id"`
	Role     NurseRole `json:"role"`
	WardID   string    `json:"ward_id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	jwt.RegisteredClaims
}
