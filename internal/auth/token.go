package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/impacttracker/impacttracker/internal/model"
)

// Token kinds. Every issued JWT carries one of these in its `type` claim and
// verification rejects a token presented for the wrong purpose even when the
// signature is valid.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is the single failure mode of token verification. Expired,
// tampered, wrong-type and malformed tokens are indistinguishable to callers
// so no partial trust decision can leak out.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the decoded, validated content of a token.
type Claims struct {
	UserID uint64
	Email  string
	Role   model.Role // only populated on access tokens
	Type   string
}

// TokenService issues and verifies the two stateless JWT kinds. Access and
// refresh tokens are signed with disjoint secrets so one can never stand in
// for the other. Verification is pure computation; no I/O.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenService(accessSecret, refreshSecret string, accessTTLMin, refreshTTLDays int) *TokenService {
	return &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     time.Duration(accessTTLMin) * time.Minute,
		refreshTTL:    time.Duration(refreshTTLDays) * 24 * time.Hour,
	}
}

// CreateAccessToken signs a short-lived HS256 token carrying the user's
// identity and role.
func (s *TokenService) CreateAccessToken(u *model.User) (string, time.Time, error) {
	exp := time.Now().UTC().Add(s.accessTTL)
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(u.ID, 10),
		"email": u.Email,
		"role":  string(u.Role),
		"type":  TokenTypeAccess,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// CreateRefreshToken signs a long-lived HS256 token. Refresh tokens carry no
// role claim; role is re-read from the user row on refresh so a role change
// takes effect at the next rotation.
func (s *TokenService) CreateRefreshToken(u *model.User) (string, time.Time, error) {
	exp := time.Now().UTC().Add(s.refreshTTL)
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(u.ID, 10),
		"email": u.Email,
		"type":  TokenTypeRefresh,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *TokenService) VerifyAccessToken(raw string) (*Claims, error) {
	return s.verify(raw, TokenTypeAccess, s.accessSecret)
}

// VerifyRefreshToken validates a refresh token and returns its claims.
func (s *TokenService) VerifyRefreshToken(raw string) (*Claims, error) {
	return s.verify(raw, TokenTypeRefresh, s.refreshSecret)
}

func (s *TokenService) verify(raw, wantType string, secret []byte) (*Claims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	typ, _ := mc["type"].(string)
	if typ != wantType {
		return nil, ErrInvalidToken
	}
	sub, _ := mc["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return nil, ErrInvalidToken
	}
	c := &Claims{UserID: uid, Type: typ}
	c.Email, _ = mc["email"].(string)
	if roleStr, ok := mc["role"].(string); ok {
		c.Role = model.Role(roleStr)
	}
	return c, nil
}
