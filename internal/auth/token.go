package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"nuesa/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Sentinel errors returned by Verify.
var (
	// ErrTokenExpired indicates a structurally valid, correctly signed token
	// whose expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid covers every other verification failure: bad signature,
	// wrong signing method, malformed structure, missing subject.
	ErrTokenInvalid = errors.New("token invalid")
)

const (
	tokenIssuer   = "nuesa-api"
	tokenAudience = "nuesa-client"

	refreshTokenType = "refresh"
)

// Config carries the signing secret and token lifetimes. It is injected
// explicitly so tests can run distinct configurations side by side.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the verified content of a token. Handlers consume these through
// a Principal, never through raw JWT claims.
type Claims struct {
	UserID    uint
	Email     string
	IsAdmin   bool
	IsRefresh bool
}

// Principal is the authenticated identity derived from a verified access
// token for one request.
type Principal struct {
	UserID  uint
	Email   string
	IsAdmin bool
}

// Principal converts verified claims into a request principal.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}

// TokenService issues and verifies HS256-signed bearer tokens.
type TokenService struct {
	cfg Config
}

// NewTokenService returns a TokenService for the given config.
func NewTokenService(cfg Config) (*TokenService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token service requires a signing secret")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 60 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &TokenService{cfg: cfg}, nil
}

// IssueAccess creates a short-lived access token carrying the user's
// identity and admin flag.
func (s *TokenService) IssueAccess(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(user.ID), 10),
		"email":    user.Email,
		"is_admin": user.IsAdmin,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"exp":      now.Add(s.cfg.AccessTTL).Unix(),
		"jti":      generateJTI(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

// IssueRefresh creates a long-lived refresh token. It carries only the
// subject and a type marker; role claims are re-derived from the user record
// when the token is redeemed.
func (s *TokenService) IssueRefresh(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(uint64(user.ID), 10),
		"type": refreshTokenType,
		"iss":  tokenIssuer,
		"aud":  tokenAudience,
		"iat":  now.Unix(),
		"exp":  now.Add(s.cfg.RefreshTTL).Unix(),
		"jti":  generateJTI(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Secret))
}

// AccessTTL returns the configured access token lifetime.
func (s *TokenService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

// Verify validates the token's signature and registered claims before
// trusting any of its content. It returns ErrTokenExpired for expired tokens
// and ErrTokenInvalid for every other failure.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{UserID: uint(userID)}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	if isAdmin, ok := mapClaims["is_admin"].(bool); ok {
		claims.IsAdmin = isAdmin
	}
	if typ, ok := mapClaims["type"].(string); ok {
		claims.IsRefresh = typ == refreshTokenType
	}
	return claims, nil
}

// generateJTI creates a unique JWT ID to prevent replay attacks
func generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
