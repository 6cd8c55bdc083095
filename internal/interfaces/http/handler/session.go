package handler

import (
	"github.com/gatepass/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the authenticated user's own identity
type SessionHandler struct {
	BaseHandler
	resolver identity.Resolver
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(resolver identity.Resolver) *SessionHandler {
	return &SessionHandler{resolver: resolver}
}

// RegisterRoutes registers session routes
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	session := rg.Group("/session")
	{
		session.GET("/profile", h.Profile)
	}
}

// SessionProfileResponse is the session user's profile and branch scope
type SessionProfileResponse struct {
	Profile     identity.Profile `json:"profile"`
	Branches    []string         `json:"branches"`
	AllBranches bool             `json:"all_branches"`
}

// Profile returns the session user's profile. The token already carries the
// profile, so no directory call happens here; the cache is seeded instead so
// later enrichment of this user's records is free. Passing refresh=true asks
// the directory for a fresh copy.
func (h *SessionHandler) Profile(c *gin.Context) {
	session, ok := h.getSessionUser(c)
	if !ok {
		return
	}

	profile := session.Profile
	if c.Query("refresh") == "true" {
		if fresh, err := h.resolver.Resolve(c.Request.Context(), profile.ServiceNo, identity.ForceRefresh); err == nil {
			profile = *fresh
		}
	} else {
		h.resolver.Seed(profile)
	}

	h.Success(c, SessionProfileResponse{
		Profile:     profile,
		Branches:    session.Branches,
		AllBranches: session.AllBranches,
	})
}
