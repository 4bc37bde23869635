package pinning

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const accessDeniedXML = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><Resource>/punks/x402Punk_3.png</Resource><RequestId>1</RequestId></Error>`

var _ = Describe("s3 client", func() {
	var (
		ctx     context.Context
		imgPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		imgPath = filepath.Join(GinkgoT().TempDir(), "x402Punk_3.png")
		Expect(os.WriteFile(imgPath, []byte("image"), 0o600)).To(Succeed())
	})

	It("requires a bucket", func() {
		_, err := NewS3Client(WithS3Credentials("a", "b"))
		Expect(err).ToNot(BeNil())
	})

	It("puts the object and reads its cid from the object metadata", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/punks/avatars/x402Punk_3.png"))

			switch r.Method {
			case http.MethodPut:
				_, _ = io.Copy(io.Discard, r.Body)
				w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
				w.WriteHeader(http.StatusOK)
			case http.MethodHead:
				w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
				w.Header().Set("Content-Length", "5")
				w.Header().Set("Content-Type", "image/png")
				w.Header().Set("Last-Modified", time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC).Format(http.TimeFormat))
				w.Header().Set("x-amz-meta-cid", "bafy-s3")
				w.WriteHeader(http.StatusOK)
			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}
		}))
		defer server.Close()

		c, err := NewS3Client(
			WithS3Endpoint(strings.TrimPrefix(server.URL, "http://")),
			WithS3Bucket("punks"),
			WithS3Prefix("avatars"),
			WithS3Credentials("access", "secret"),
			WithS3SSL(false),
		)
		Expect(err).To(BeNil())
		Expect(c.Name()).To(Equal("s3"))

		pin, err := c.Upload(ctx, imgPath)
		Expect(err).To(BeNil())
		Expect(pin.CID).To(Equal("bafy-s3"))
		Expect(pin.Name).To(Equal("x402Punk_3.png"))
	})

	It("classifies a denied put as unauthorized", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(accessDeniedXML))
		}))
		defer server.Close()

		c, err := NewS3Client(
			WithS3Endpoint(strings.TrimPrefix(server.URL, "http://")),
			WithS3Bucket("punks"),
			WithS3Credentials("access", "secret"),
			WithS3SSL(false),
		)
		Expect(err).To(BeNil())

		_, err = c.Upload(ctx, imgPath)
		Expect(KindOf(err)).To(Equal(KindUnauthorized))
	})

	It("never contacts the gateway to pin", func() {
		c, err := NewS3Client(WithS3Bucket("punks"), WithS3Credentials("a", "b"))
		Expect(err).To(BeNil())
		Expect(c.Pin(ctx, "bafy", "manifest")).To(Succeed())
	})

	DescribeTable("classifyS3Error",
		func(resp minio.ErrorResponse, expected Kind) {
			Expect(classifyS3Error(resp).Kind).To(Equal(expected))
		},
		Entry("slow down", minio.ErrorResponse{Code: "SlowDown", StatusCode: http.StatusServiceUnavailable}, KindRateLimited),
		Entry("429", minio.ErrorResponse{StatusCode: http.StatusTooManyRequests}, KindRateLimited),
		Entry("access denied", minio.ErrorResponse{Code: "AccessDenied", StatusCode: http.StatusForbidden}, KindUnauthorized),
		Entry("bad signature", minio.ErrorResponse{Code: "SignatureDoesNotMatch", StatusCode: http.StatusForbidden}, KindUnauthorized),
		Entry("internal error", minio.ErrorResponse{Code: "InternalError", StatusCode: http.StatusInternalServerError}, KindTransient),
		Entry("missing bucket", minio.ErrorResponse{Code: "NoSuchBucket", StatusCode: http.StatusNotFound}, KindMalformed),
	)

	It("treats non s3 errors as transient", func() {
		Expect(classifyS3Error(errors.New("connection reset")).Kind).To(Equal(KindTransient))
	})
})
