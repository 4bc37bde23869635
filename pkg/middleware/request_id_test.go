package middleware_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/x402punks/punk-pinner/pkg/middleware"
	"github.com/x402punks/punk-pinner/pkg/requestid"
)

var _ = Describe("request id", func() {
	var seen string

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromRequest(r)
	}))

	BeforeEach(func() {
		seen = ""
	})

	It("reuses the incoming header", func() {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(requestid.Header, "abc")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		Expect(seen).To(Equal("abc"))
		Expect(rec.Header().Get(requestid.Header)).To(Equal("abc"))
	})

	It("generates an id when none is provided", func() {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		Expect(seen).ToNot(BeEmpty())
		Expect(rec.Header().Get(requestid.Header)).To(Equal(seen))
	})

	It("passes through the logger", func() {
		rec := httptest.NewRecorder()
		middleware.Logger()(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
