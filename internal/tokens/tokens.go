package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lexfirma/lexfirma/backend/go-services/pkg/middleware"
)

// GenerateReviewerToken creates a signed HS256 token for a professional
// reviewer. Used by deployments without an OIDC provider and by tests.
func GenerateReviewerToken(secret, sub, name string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  sub,
		"name": name,
		"role": "reviewer",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// hs256Token adapts parsed claims to the middleware.Token interface.
type hs256Token struct {
	claims jwt.MapClaims
}

func (t *hs256Token) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// HS256Verifier verifies locally signed reviewer tokens. It satisfies
// middleware.Verifier so it is interchangeable with the OIDC verifier.
type HS256Verifier struct {
	secret []byte
}

func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &HS256Verifier{secret: []byte(secret)}, nil
}

func (v *HS256Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return &hs256Token{claims: claims}, nil
}
