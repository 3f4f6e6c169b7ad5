package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/folio-studio/folio-backend/internal/auth"
	"github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/logging"
)

var ErrInvalidToken = errors.New("invalid token")

// IDTokenVerifier is satisfied by *firebase auth.Client.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// AccessTokenVerifier checks access tokens issued by the OAuth server.
type AccessTokenVerifier interface {
	VerifyAccessToken(token string) (*domain.AccessClaims, error)
}

// ProfileResolver loads the profile behind an identity.
type ProfileResolver interface {
	ResolveProfile(ctx context.Context, id *domain.Identity) (*domain.Profile, error)
}

// Authenticator validates bearer tokens. Either verifier may be nil, in
// which case that kind of token is rejected.
type Authenticator struct {
	idTokens     IDTokenVerifier
	accessTokens AccessTokenVerifier
	profiles     ProfileResolver
	// resourceMetadata is advertised in WWW-Authenticate on 401 responses.
	resourceMetadata string
}

func NewAuthenticator(idTokens IDTokenVerifier, accessTokens AccessTokenVerifier, profiles ProfileResolver, resourceMetadataURL string) *Authenticator {
	return &Authenticator{
		idTokens:         idTokens,
		accessTokens:     accessTokens,
		profiles:         profiles,
		resourceMetadata: resourceMetadataURL,
	}
}

// Verify resolves a raw bearer token to an identity. OAuth access tokens
// are checked first since they verify locally.
func (a *Authenticator) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	if a.accessTokens != nil {
		claims, err := a.accessTokens.VerifyAccessToken(token)
		if err == nil {
			return &domain.Identity{
				Source:    domain.SourceOAuth,
				ProfileID: claims.ProfileID,
				ClientID:  claims.ClientID,
				Scope:     claims.Scope,
			}, nil
		}
	}

	if a.idTokens != nil {
		decoded, err := a.idTokens.VerifyIDToken(ctx, token)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		id := &domain.Identity{Source: domain.SourceFirebase, FirebaseUID: decoded.UID}
		if email, ok := decoded.Claims["email"].(string); ok {
			id.Email = email
		}
		return id, nil
	}

	return nil, ErrInvalidToken
}

// RequireProfile verifies the token and loads the caller's profile. Both
// Firebase ID tokens and OAuth access tokens are accepted, so only routes
// that check the token's scope themselves may use it.
func (a *Authenticator) RequireProfile() gin.HandlerFunc {
	return a.requireProfile(false)
}

// RequireSiteProfile is RequireProfile for site sessions only. OAuth access
// tokens are answered with 403: they grant MCP scopes, not the site's.
func (a *Authenticator) RequireSiteProfile() gin.HandlerFunc {
	return a.requireProfile(true)
}

// RequireSiteIdentity accepts a verified site session, profile or not. Used
// by the profile sync endpoint, which is what creates profiles.
func (a *Authenticator) RequireSiteIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := a.identify(c, true)
		if !ok {
			return
		}
		c.Set(auth.CtxIdentity, id)
		c.Next()
	}
}

func (a *Authenticator) requireProfile(siteOnly bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := a.identify(c, siteOnly)
		if !ok {
			return
		}

		profile, err := a.profiles.ResolveProfile(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrProfileNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "profile not found", "details": "sign in to the site once to create a profile"})
				return
			}
			logging.FromContext(c.Request.Context()).Error("auth.profile.resolve_failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve profile"})
			return
		}

		c.Set(auth.CtxIdentity, id)
		c.Set(auth.CtxProfile, profile)
		c.Next()
	}
}

// RequireRole must run after RequireProfile.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := auth.ProfileFrom(c)
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "details": "role " + p.Role + " may not perform this action"})
	}
}

func (a *Authenticator) identify(c *gin.Context, siteOnly bool) (*domain.Identity, bool) {
	token := ExtractToken(c.GetHeader("Authorization"))
	if token == "" {
		a.unauthorized(c, "missing authorization token")
		return nil, false
	}

	id, err := a.Verify(c.Request.Context(), token)
	if err != nil {
		logging.FromContext(c.Request.Context()).Debug("auth.token.rejected", "error", err)
		a.unauthorized(c, "invalid token")
		return nil, false
	}
	if siteOnly && id.Source != domain.SourceFirebase {
		logging.FromContext(c.Request.Context()).Info("auth.token.wrong_audience", "source", id.Source, "client_id", id.ClientID)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "site session required", "details": "OAuth access tokens are only accepted by the MCP endpoint"})
		return nil, false
	}
	return id, true
}

func (a *Authenticator) unauthorized(c *gin.Context, msg string) {
	if a.resourceMetadata != "" {
		c.Header("WWW-Authenticate", fmt.Sprintf(`Bearer resource_metadata=%q`, a.resourceMetadata))
	} else {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// ExtractToken extracts the Bearer token from an Authorization header value.
func ExtractToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
