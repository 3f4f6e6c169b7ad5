package service

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	authdomain "github.com/folio-studio/folio-backend/internal/auth/domain"
	"github.com/folio-studio/folio-backend/internal/oauth/domain"
)

const (
	useAccess  = "access"
	useConsent = "consent"
)

var ErrInvalidToken = errors.New("invalid token")

type accessClaims struct {
	ClientID string `json:"client_id"`
	Scope    string `json:"scope,omitempty"`
	Use      string `json:"token_use"`
	jwt.RegisteredClaims
}

type consentClaims struct {
	Pending domain.PendingAuthorization `json:"pending"`
	Use     string                      `json:"token_use"`
	jwt.RegisteredClaims
}

// TokenSigner issues and verifies the HS256 JWTs used as access tokens and
// as the pending-authorization cookie. The token_use claim keeps one kind
// from being accepted as the other.
type TokenSigner struct {
	key    []byte
	issuer string
	now    func() time.Time
}

func NewTokenSigner(key, issuer string) *TokenSigner {
	return &TokenSigner{key: []byte(key), issuer: issuer, now: time.Now}
}

func (s *TokenSigner) IssueAccessToken(profileID, clientID, scope string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := accessClaims{
		ClientID: clientID,
		Scope:    scope,
		Use:      useAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// VerifyAccessToken satisfies the bearer middleware's AccessTokenVerifier.
func (s *TokenSigner) VerifyAccessToken(token string) (*authdomain.AccessClaims, error) {
	var claims accessClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Use != useAccess || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &authdomain.AccessClaims{
		ProfileID: claims.Subject,
		ClientID:  claims.ClientID,
		Scope:     claims.Scope,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignPending encodes a pending authorization for the consent cookie.
func (s *TokenSigner) SignPending(p *domain.PendingAuthorization) (string, error) {
	claims := consentClaims{
		Pending: *p,
		Use:     useConsent,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(p.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign consent request: %w", err)
	}
	return signed, nil
}

func (s *TokenSigner) ParsePending(token string) (*domain.PendingAuthorization, error) {
	var claims consentClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	if claims.Use != useConsent {
		return nil, ErrInvalidToken
	}
	return &claims.Pending, nil
}

type issuedClaims interface {
	jwt.Claims
	VerifyIssuer(cmp string, req bool) bool
}

func (s *TokenSigner) parse(token string, claims issuedClaims) error {
	parser := jwt.Parser{}
	_, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	return nil
}

func randomToken(size int) (string, error) {
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
