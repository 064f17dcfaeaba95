package generates

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Credential verification failures. Both map to "unauthenticated", never to
// "forbidden", and are never retried.
var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrCredentialExpired = errors.New("credential expired")
)

// DefaultExpiry is the default bearer credential lifetime.
const DefaultExpiry = 7 * 24 * time.Hour

// TokenConfig is the immutable signing configuration, constructed once at
// startup and injected. Request handling never reads secrets from ambient
// process state.
type TokenConfig struct {
	// SignedKeyID is an optional key id stamped into the token header.
	SignedKeyID string
	// Secret is the server-held HMAC key.
	Secret []byte
	// Expiry overrides DefaultExpiry when non-zero.
	Expiry time.Duration
}

// AccessClaims are the claims carried by a bearer credential: the subject
// identity plus an optional workspace (tenant) hint embedded at issuance time.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID      string `json:"user_id,omitempty"`
	WorkspaceID string `json:"workspace_id,omitempty"`
}

// NewJWTAccessGenerate creates a JWT access token generator/verifier signed
// with HS256.
func NewJWTAccessGenerate(cfg TokenConfig) *JWTAccessGenerate {
	return &JWTAccessGenerate{
		Config:       cfg,
		SignedMethod: jwt.SigningMethodHS256,
	}
}

// JWTAccessGenerate mints and verifies bearer credentials.
type JWTAccessGenerate struct {
	Config       TokenConfig
	SignedMethod jwt.SigningMethod
}

func (a *JWTAccessGenerate) expiry() time.Duration {
	if a.Config.Expiry > 0 {
		return a.Config.Expiry
	}
	return DefaultExpiry
}

// Token mints a new signed credential for the given user with an optional
// workspace hint. Each call produces a distinct valid credential; callers must
// not retry it blindly.
func (a *JWTAccessGenerate) Token(ctx context.Context, userID, workspaceID string) (string, error) {
	if userID == "" {
		return "", ErrInvalidCredential
	}
	now := time.Now()
	claims := &AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry())),
		},
		UserID:      userID,
		WorkspaceID: workspaceID,
	}
	token := jwt.NewWithClaims(a.SignedMethod, claims)
	if a.Config.SignedKeyID != "" {
		token.Header["kid"] = a.Config.SignedKeyID
	}
	return token.SignedString(a.Config.Secret)
}

// Verify validates signature and expiry and returns the claims.
// Malformed or badly signed tokens fail with ErrInvalidCredential; a valid
// signature past its expiry fails with ErrCredentialExpired. No side effects.
func (a *JWTAccessGenerate) Verify(ctx context.Context, tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return a.Config.Secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, ErrInvalidCredential
	}
	if !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
