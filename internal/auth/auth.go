package auth

import (
	"errors"
	"net/http"
	"os"
	"strings"
)

var (
	ErrMissingBearer = errors.New("missing bearer token")
	ErrInvalidToken  = errors.New("invalid token")
)

type Claims struct {
	Subject string
	Issuer  string
	Token   string
}

type Authenticator interface {
	Authenticate(r *http.Request) (Claims, error)
}

// TokenAuthenticator checks requests against a single shared token. An
// empty token disables authentication; every request is accepted as
// anonymous.
type TokenAuthenticator struct {
	DevToken string
}

func NewAuthenticatorFromEnv() *TokenAuthenticator {
	return &TokenAuthenticator{
		DevToken: os.Getenv("GUARDRAIL_DEV_TOKEN"),
	}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (Claims, error) {
	if a.DevToken == "" {
		return Claims{Subject: "anonymous", Issuer: "guardrail-open"}, nil
	}

	bearer, err := extractBearer(r)
	if err != nil {
		return Claims{}, err
	}
	if bearer == a.DevToken {
		return Claims{Subject: "dev", Issuer: "guardrail-dev", Token: bearer}, nil
	}
	return Claims{}, ErrInvalidToken
}

func extractBearer(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", ErrMissingBearer
	}
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", ErrInvalidToken
	}
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}
