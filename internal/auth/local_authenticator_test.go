package auth_test

import (
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/x402punks/punk-pinner/internal/auth"
	"github.com/x402punks/punk-pinner/internal/config"
)

type handler struct {
	user auth.User
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.user, _ = auth.UserFromContext(r.Context())
	w.WriteHeader(http.StatusOK)
}

func get(a auth.Authenticator, h http.Handler, token string) int {
	req := httptest.NewRequest(http.MethodGet, "/jobs", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.Authenticator(h).ServeHTTP(rec, req)
	return rec.Code
}

var _ = Describe("authentication", func() {
	Context("factory", func() {
		It("defaults to none", func() {
			a, err := auth.NewAuthenticator(config.Auth{})
			Expect(err).To(BeNil())
			Expect(a).To(BeAssignableToTypeOf(&auth.NoneAuthenticator{}))
		})

		It("requires a secret for local authentication", func() {
			_, err := auth.NewAuthenticator(config.Auth{AuthenticationType: auth.LocalAuthentication})
			Expect(err).ToNot(BeNil())
		})

		It("rejects unknown types", func() {
			_, err := auth.NewAuthenticator(config.Auth{AuthenticationType: "rhsso"})
			Expect(err).ToNot(BeNil())
		})
	})

	Context("none", func() {
		It("injects the operator", func() {
			h := &handler{}
			Expect(get(auth.NoneAuthenticator{}, h, "")).To(Equal(http.StatusOK))
			Expect(h.user.Username).To(Equal(auth.OperatorUser))
			Expect(h.user.Token).To(BeNil())
		})
	})

	Context("local", func() {
		var a *auth.LocalAuthenticator

		BeforeEach(func() {
			var err error
			a, err = auth.NewLocalAuthenticator("s3cr3t")
			Expect(err).To(BeNil())
		})

		It("accepts a signed token", func() {
			token, err := a.Token("batman", time.Hour)
			Expect(err).To(BeNil())

			h := &handler{}
			Expect(get(a, h, token)).To(Equal(http.StatusOK))
			Expect(h.user.Username).To(Equal("batman"))
			Expect(h.user.Token).ToNot(BeNil())
		})

		It("rejects requests without a token", func() {
			Expect(get(a, &handler{}, "")).To(Equal(http.StatusUnauthorized))
		})

		It("rejects tokens signed with another secret", func() {
			other, _ := auth.NewLocalAuthenticator("other")
			token, err := other.Token("joker", time.Hour)
			Expect(err).To(BeNil())
			Expect(get(a, &handler{}, token)).To(Equal(http.StatusUnauthorized))
		})

		It("rejects expired tokens", func() {
			token, err := a.Token("batman", -time.Minute)
			Expect(err).To(BeNil())
			_, err = a.Authenticate(token)
			Expect(err).ToNot(BeNil())
		})

		It("rejects other signing methods", func() {
			t := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
				Subject:   "batman",
				Issuer:    "punk-pinner",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			})
			token, err := t.SignedString([]byte("s3cr3t"))
			Expect(err).To(BeNil())
			_, err = a.Authenticate(token)
			Expect(err).ToNot(BeNil())
		})
	})
})
