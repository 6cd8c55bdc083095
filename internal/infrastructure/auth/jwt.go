package auth

import (
	"errors"
	"time"

	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingServiceNo = errors.New("missing service_no in claims")
)

// Claims carries the session user inside the JWT. The token is issued at
// login by the corporate SSO gateway; this service only validates it and
// materializes the session user from it.
type Claims struct {
	jwt.RegisteredClaims
	ServiceNo   string   `json:"service_no"`
	DisplayName string   `json:"display_name"`
	Designation string   `json:"designation,omitempty"`
	Section     string   `json:"section,omitempty"`
	Group       string   `json:"group,omitempty"`
	ContactNo   string   `json:"contact_no,omitempty"`
	Email       string   `json:"email,omitempty"`
	Branches    []string `json:"branches,omitempty"`
	AllBranches bool     `json:"all_branches,omitempty"`
}

// SessionUser materializes the identity carried in the claims
func (c *Claims) SessionUser() identity.SessionUser {
	return identity.SessionUser{
		Profile: identity.Profile{
			ServiceNo:   c.ServiceNo,
			DisplayName: c.DisplayName,
			Designation: c.Designation,
			Section:     c.Section,
			Group:       c.Group,
			ContactNo:   c.ContactNo,
			Email:       c.Email,
			Source:      identity.SourceSession,
		},
		Branches:    c.Branches,
		AllBranches: c.AllBranches,
	}
}

// JWTService handles JWT token operations
type JWTService struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		secret:     []byte(cfg.Secret),
		expiration: cfg.Expiration,
		issuer:     cfg.Issuer,
	}
}

// Generate creates a signed session token for the given user. Used by the
// development login endpoint and by tests; production tokens come from the
// SSO gateway with the same claim shape.
func (s *JWTService) Generate(user identity.SessionUser) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiration)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   user.Profile.ServiceNo,
			Audience:  jwt.ClaimStrings{s.issuer},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		ServiceNo:   user.Profile.ServiceNo,
		DisplayName: user.Profile.DisplayName,
		Designation: user.Profile.Designation,
		Section:     user.Profile.Section,
		Group:       user.Profile.Group,
		ContactNo:   user.Profile.ContactNo,
		Email:       user.Profile.Email,
		Branches:    user.Branches,
		AllBranches: user.AllBranches,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate validates a session token and returns its claims
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}

	if claims.ServiceNo == "" {
		return nil, ErrMissingServiceNo
	}

	return claims, nil
}

// GetExpiration returns the configured token lifetime
func (s *JWTService) GetExpiration() time.Duration {
	return s.expiration
}
