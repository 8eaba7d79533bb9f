package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims mirrors the access tokens minted by the identity service.
type JWTClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
