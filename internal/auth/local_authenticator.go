package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const issuer = "punk-pinner"

// LocalAuthenticator accepts HS256 bearer tokens signed with a shared secret.
type LocalAuthenticator struct {
	secret []byte
}

func NewLocalAuthenticator(secret string) (*LocalAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("local authentication requires X402_AUTH_SECRET")
	}
	return &LocalAuthenticator{secret: []byte(secret)}, nil
}

// Token signs a token for username valid for ttl.
func (l *LocalAuthenticator) Token(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return t.SignedString(l.secret)
}

func (l *LocalAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)

	claims := &jwt.RegisteredClaims{}
	t, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return l.secret, nil
	})
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}
	if claims.Subject == "" {
		return User{}, errors.New("token has no subject")
	}

	return User{Username: claims.Subject, Token: t}, nil
}

func (l *LocalAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, found := bearerToken(r)
		if !found {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := l.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Warnw("authentication failed", "error", err, "path", r.URL.Path)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), user)))
	})
}
