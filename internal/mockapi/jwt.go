package mockapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenTTL is how long issued access tokens stay valid. The mock server has
// no refresh flow; an expired token means logging in again, which is exactly
// the session-expiry path the CLI needs to exercise.
const tokenTTL = 24 * time.Hour

// Claims is the access-token payload. The user id rides in the numeric `sub`
// claim, with name and username alongside, matching what the profile
// endpoint echoes back.
type Claims struct {
	Sub      int64  `json:"sub"`
	Name     string `json:"name"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// generateToken creates a signed access token for a user
func generateToken(secret []byte, user *User) (string, error) {
	claims := Claims{
		Sub:      int64(user.ID),
		Name:     user.Name,
		Username: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// validateToken validates an access token and returns its claims
func validateToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
