// internal/auth/auth.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Annany2002/nebula-studio/api/models"
	"github.com/Annany2002/nebula-studio/internal/logger"
)

const issuer = "nebula-studio"

var (
	ErrTokenMalformed          = errors.New("malformed token")
	ErrTokenExpired            = errors.New("token is expired or not valid yet")
	ErrTokenInvalid            = errors.New("invalid token")
	ErrTokenClaimsInvalid      = errors.New("invalid token claims")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrUnexpectedSigningMethod = errors.New("unexpected token signing method")
	customLog                  = logger.NewLogger()
)

// GenerateJWT creates a signed token whose subject is userID.
func GenerateJWT(userID, jwtSecret string, jwtExpiration time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("%w: empty user id", ErrTokenClaimsInvalid)
	}
	// Set custom and standard claims
	now := time.Now()
	claims := models.CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	// Create token with claims and sign it with our secret key
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		customLog.Warnf("Error signing JWT for user %s: %v", userID, err)
		return "", fmt.Errorf("failed to generate token") // Generic error
	}
	return signedToken, nil
}

// ValidateJWT parses and validates a token, returning the requesting user id.
func ValidateJWT(tokenString, jwtSecret string) (string, error) {
	claims := &models.CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Check the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			customLog.Warnf("ValidateJWT: Unexpected signing method: %v", token.Header["alg"])
			return nil, fmt.Errorf("%w: %v", ErrUnexpectedSigningMethod, token.Header["alg"])
		}
		// Return the secret key for validation
		return []byte(jwtSecret), nil
	})
	if err != nil {
		// Map library errors to our defined errors
		customLog.Debugf("ValidateJWT: Token parsing error: %v", err)
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired), errors.Is(err, jwt.ErrTokenNotValidYet):
			return "", ErrTokenExpired
		case errors.Is(err, ErrUnexpectedSigningMethod):
			return "", ErrUnexpectedSigningMethod
		default:
			return "", ErrTokenInvalid
		}
	}
	if !token.Valid {
		return "", ErrTokenInvalid
	}

	// Older tokens may only carry the subject
	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		customLog.Warnf("ValidateJWT: UserID missing in token claims")
		return "", ErrTokenClaimsInvalid
	}
	return userID, nil
}
