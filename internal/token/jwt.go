package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/restoinsight/insights-server/internal/model"
)

// Claims represents JWT claims with token type and account ID.
type Claims struct {
	jwt.RegisteredClaims
	AccountID uuid.UUID `json:"account_id"`
	TokenType string    `json:"typ"`
}

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	accessTTL time.Duration
	now       func() time.Time
}

const (
	defaultAccessTTL = time.Hour
	verificationTTL  = 48 * time.Hour
	typeAccess       = "access"
	typeVerification = "verify"
)

// NewJWT creates a new JWT token manager with the provided secret key.
// A zero accessTTL falls back to one hour.
func NewJWT(secretKey string, accessTTL time.Duration) *JWT {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	return &JWT{secretKey: secretKey, accessTTL: accessTTL, now: time.Now}
}

var _ model.TokenManager = (*JWT)(nil)

// GenerateAccessToken creates a bearer token for API calls.
func (j *JWT) GenerateAccessToken(accountID uuid.UUID) (string, error) {
	return j.sign(accountID, typeAccess, j.accessTTL)
}

// GenerateVerificationToken creates a single-purpose token mailed at registration.
func (j *JWT) GenerateVerificationToken(accountID uuid.UUID) (string, error) {
	return j.sign(accountID, typeVerification, verificationTTL)
}

func (j *JWT) ParseAccessToken(tokenString string) (uuid.UUID, error) {
	return j.parse(tokenString, typeAccess)
}

func (j *JWT) ParseVerificationToken(tokenString string) (uuid.UUID, error) {
	return j.parse(tokenString, typeVerification)
}

func (j *JWT) sign(accountID uuid.UUID, typ string, ttl time.Duration) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
		TokenType: typ,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return tokenString, nil
}

func (j *JWT) parse(tokenString, typ string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrInvalidToken, err)
	}
	if !token.Valid {
		return uuid.Nil, model.ErrInvalidToken
	}
	if claims.TokenType != typ {
		return uuid.Nil, fmt.Errorf("%w: token type mismatch: %s", model.ErrInvalidToken, claims.TokenType)
	}
	if claims.AccountID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing account", model.ErrInvalidToken)
	}
	return claims.AccountID, nil
}
