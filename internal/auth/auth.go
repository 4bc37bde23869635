package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/x402punks/punk-pinner/internal/config"
)

const (
	LocalAuthentication string = "local"
	NoneAuthentication  string = "none"

	// OperatorUser is attached to every request when authentication is disabled.
	OperatorUser = "operator"
)

// Authenticator guards the job routes of the api.
type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

// NewAuthenticator returns the authenticator selected by X402_AUTH.
// An empty type disables authentication.
func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	switch authConfig.AuthenticationType {
	case LocalAuthentication:
		zap.S().Named("auth").Info("job routes require a bearer token")
		return NewLocalAuthenticator(authConfig.Secret)
	case NoneAuthentication, "":
		zap.S().Named("auth").Warn("authentication disabled, job routes are open")
		return &NoneAuthenticator{}, nil
	default:
		return nil, fmt.Errorf("unknown authentication type %q", authConfig.AuthenticationType)
	}
}

// User is the caller of a job route. Token is nil for the operator.
type User struct {
	Username string
	Token    *jwt.Token
}

type userKeyType struct{}

var userKey userKeyType

func NewUserContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

type NoneAuthenticator struct{}

func (NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(NewUserContext(r.Context(), User{Username: OperatorUser})))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}
