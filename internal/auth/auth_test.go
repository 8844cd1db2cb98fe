package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_for_unit_tests_1234567890"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("user-42", testSecret, time.Minute)
	require.NoError(t, err)

	userID, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestValidateJWTFailures(t *testing.T) {
	valid, err := GenerateJWT("user-42", testSecret, time.Minute)
	require.NoError(t, err)
	expired, err := GenerateJWT("user-42", testSecret, -time.Minute)
	require.NoError(t, err)
	noneSigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"userID": "x"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
		want   error
	}{
		{"garbage", "not-a-token", testSecret, ErrTokenMalformed},
		{"wrong secret", valid, "another_secret", ErrTokenInvalid},
		{"expired", expired, testSecret, ErrTokenExpired},
		{"unsigned", noneSigned, testSecret, ErrUnexpectedSigningMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateJWT(tt.token, tt.secret)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGenerateJWTNeedsUser(t *testing.T) {
	_, err := GenerateJWT("", testSecret, time.Minute)
	assert.ErrorIs(t, err, ErrTokenClaimsInvalid)
}
