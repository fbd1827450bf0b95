package testutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/weshare-leasing/internal/auth"
	"github.com/nurpe/weshare-leasing/internal/model"
)

// Token signs an access token the way the identity service does.
func Token(t *testing.T, secret string, userID int64, role model.Role, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := auth.Claims{
		UserID: userID,
		Role:   string(role),
		Lang:   "en",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
