package auth

import (
	"testing"
	"time"

	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gatepass/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:     "test-secret-key-for-jwt-signing-32ch",
		Issuer:     "gatepass-backend",
		Expiration: time.Hour,
	}
}

func testSessionUser() identity.SessionUser {
	return identity.SessionUser{
		Profile: identity.Profile{
			ServiceNo:   "EMP100",
			DisplayName: "Nimal Perera",
			Designation: "Engineer",
			Section:     "NOC",
			Group:       "Network",
			ContactNo:   "0771234567",
			Email:       "nimal@slt.lk",
			Source:      identity.SourceSession,
		},
		Branches: []string{"HO", "KANDY"},
	}
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	service := NewJWTService(testJWTConfig())

	token, expiresAt, err := service.Generate(testSessionUser())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := service.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "EMP100", claims.ServiceNo)
	assert.Equal(t, "Nimal Perera", claims.DisplayName)
	assert.Equal(t, []string{"HO", "KANDY"}, claims.Branches)
	assert.False(t, claims.AllBranches)
	assert.Equal(t, "gatepass-backend", claims.Issuer)
}

func TestJWTService_Validate(t *testing.T) {
	service := NewJWTService(testJWTConfig())

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := service.Validate("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects a token signed with a different secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{
			Secret:     "another-secret-key-entirely-32-chars",
			Issuer:     "gatepass-backend",
			Expiration: time.Hour,
		})
		token, _, err := other.Generate(testSessionUser())
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		expired := NewJWTService(config.JWTConfig{
			Secret:     testJWTConfig().Secret,
			Issuer:     "gatepass-backend",
			Expiration: -time.Minute,
		})
		token, _, err := expired.Generate(testSessionUser())
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("rejects a token without a service number", func(t *testing.T) {
		token, _, err := service.Generate(identity.SessionUser{})
		require.NoError(t, err)

		_, err = service.Validate(token)
		assert.ErrorIs(t, err, ErrMissingServiceNo)
	})
}

func TestClaims_SessionUser(t *testing.T) {
	service := NewJWTService(testJWTConfig())

	original := testSessionUser()
	original.AllBranches = true

	token, _, err := service.Generate(original)
	require.NoError(t, err)

	claims, err := service.Validate(token)
	require.NoError(t, err)

	user := claims.SessionUser()
	assert.Equal(t, original.Profile, user.Profile)
	assert.Equal(t, original.Branches, user.Branches)
	assert.True(t, user.AllBranches)
	assert.True(t, user.CanAccessBranch("GALLE"), "all-branches override grants every branch")
}
