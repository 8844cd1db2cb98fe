// api/models/auth_models.go
package models

import "github.com/golang-jwt/jwt/v5"

// CustomClaims carries the requesting user's id in a bearer token.
type CustomClaims struct {
	UserID string `json:"userID"`
	jwt.RegisteredClaims
}
