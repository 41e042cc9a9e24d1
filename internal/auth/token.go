package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wilber023/aura-messasing-service/internal/domain"
)

var (
	ErrMissingToken = errors.New("token is required")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims mirrors what the issuing auth layer signs into access tokens.
// Older tokens carry the profile id under "profile_id"; both spellings
// are accepted.
type Claims struct {
	jwt.RegisteredClaims
	ID             string `json:"id"`
	ProfileID      string `json:"profileId"`
	ProfileIDSnake string `json:"profile_id"`
	Username       string `json:"username"`
}

// TokenDecoder validates a bearer credential and extracts the identity.
// Signature and expiry rules are entirely the issuer's; this layer only
// branches on the outcome.
type TokenDecoder interface {
	Decode(token string) (domain.Identity, error)
}

// HMACDecoder verifies tokens signed with the shared service secret.
type HMACDecoder struct {
	secret []byte
}

func NewHMACDecoder(secret string) *HMACDecoder {
	return &HMACDecoder{secret: []byte(secret)}
}

func (d *HMACDecoder) Decode(token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredToken
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return domain.Identity{}, ErrInvalidToken
	}

	profileID := claims.ProfileID
	if profileID == "" {
		profileID = claims.ProfileIDSnake
	}
	if profileID == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing profile id claim", ErrInvalidToken)
	}

	return domain.Identity{
		UserID:    claims.ID,
		ProfileID: profileID,
		Username:  claims.Username,
	}, nil
}
