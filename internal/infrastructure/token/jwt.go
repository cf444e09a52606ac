package token

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/workforce/login-service/internal/core/domain"
)

// Lifetime is the fixed validity of an issued token. There is no refresh flow.
const Lifetime = 60 * time.Minute

// Claims is the session token payload. Custom claim values are strings.
type Claims struct {
	UserID     string `json:"id"`
	Email      string `json:"email"`
	Role       string `json:"rol"`
	Department string `json:"dep"`
	Company    string `json:"company"`
	IsApprover string `json:"isApprover"`
	jwt.RegisteredClaims
}

// Option configures a JWTIssuer.
type Option func(*JWTIssuer)

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(i *JWTIssuer) { i.now = now }
}

// JWTIssuer signs and verifies HS256 session tokens.
type JWTIssuer struct {
	key      []byte
	issuer   string
	audience string
	now      func() time.Time
}

// NewJWTIssuer returns an issuer bound to key. An empty key is a
// configuration error.
func NewJWTIssuer(key, issuer, audience string, opts ...Option) (*JWTIssuer, error) {
	if strings.TrimSpace(key) == "" {
		return nil, domain.Configuration("jwt signing key is not configured")
	}
	i := &JWTIssuer{
		key:      []byte(key),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue builds and signs a token for an authenticated user and its employee
// profile. It performs no I/O.
func (i *JWTIssuer) Issue(user *domain.User, employee *domain.EmployeeProfile) (domain.SessionToken, error) {
	if user == nil || employee == nil {
		return domain.SessionToken{}, domain.Validation("user and employee profile are required")
	}

	now := i.now().UTC()
	issuedAt := jwt.NewNumericDate(now)
	expiresAt := jwt.NewNumericDate(now.Add(Lifetime))

	claims := Claims{
		UserID:     strconv.FormatInt(user.ID, 10),
		Email:      user.Email,
		Role:       user.RoleDescription(),
		Department: strconv.FormatInt(employee.DepartmentID, 10),
		Company:    strconv.FormatInt(employee.CompanyID, 10),
		IsApprover: strconv.FormatBool(employee.IsApprover),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Audience:  audience(i.audience),
			IssuedAt:  issuedAt,
			ExpiresAt: expiresAt,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return domain.SessionToken{}, &domain.Error{Kind: domain.ErrConfiguration, Message: "sign token", Cause: err}
	}

	return domain.SessionToken{Token: signed, Expiration: expiresAt.Time.UTC()}, nil
}

// Verify parses a token and checks its signature, algorithm, issuer,
// audience and expiry.
func (i *JWTIssuer) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.audience != "" {
		opts = append(opts, jwt.WithAudience(i.audience))
	}

	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, &domain.Error{Kind: domain.ErrAuthentication, Message: "invalid token", Cause: err}
	}
	return claims, nil
}

func audience(a string) jwt.ClaimStrings {
	if a == "" {
		return nil
	}
	return jwt.ClaimStrings{a}
}
