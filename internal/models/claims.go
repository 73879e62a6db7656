package models

import "github.com/golang-jwt/jwt/v5"

// Claims defines the information stored in the session JWT.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
