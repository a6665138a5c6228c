package mock

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 24 * time.Hour
)

// createJWT creates a signed token of the given type; jti keeps tokens unique.
func (b *Backend) createJWT(tokenType string, expiry time.Duration) (string, error) {
	now := time.Now()
	jti := make([]byte, 8)
	if _, err := rand.Read(jti); err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"iss": b.Issuer,
		"sub": b.UserID,
		"aud": b.ClientID,
		"exp": now.Add(expiry).Unix(),
		"iat": now.Unix(),
		"jti": hex.EncodeToString(jti),
		"typ": tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(b.PrivateKey)
}

// ParseToken verifies a token issued by the backend and returns its claims.
func (b *Backend) ParseToken(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return &b.PrivateKey.PublicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}
