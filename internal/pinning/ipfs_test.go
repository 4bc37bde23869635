package pinning

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ipfs client", func() {
	var (
		ctx     context.Context
		imgPath string
	)

	BeforeEach(func() {
		ctx = context.Background()
		imgPath = filepath.Join(GinkgoT().TempDir(), "x402Punk_1.png")
		Expect(os.WriteFile(imgPath, []byte("png"), 0o600)).To(Succeed())
	})

	It("adds a file and reads the last entry of the answer", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/v0/add"))
			Expect(r.URL.Query().Get("pin")).To(Equal("true"))
			Expect(r.Header.Get("Authorization")).To(BeEmpty())

			file, header, err := r.FormFile("file")
			Expect(err).To(BeNil())
			defer file.Close()
			Expect(header.Filename).To(Equal("x402Punk_1.png"))
			content, _ := io.ReadAll(file)
			Expect(string(content)).To(Equal("png"))

			_, _ = w.Write([]byte("{\"Name\":\"x402Punk_1.png\",\"Hash\":\"QmFile\",\"Size\":\"11\"}\n"))
		}))
		defer server.Close()

		c := NewIPFSClient(WithIPFSAPIURL(server.URL + "/api/v0/"))
		Expect(c.Name()).To(Equal("ipfs"))

		pin, err := c.Upload(ctx, imgPath)
		Expect(err).To(BeNil())
		Expect(pin.CID).To(Equal("QmFile"))
		Expect(pin.Size).To(Equal(int64(11)))
	})

	It("sends the bearer token and the pin flag", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer fb-token"))
			Expect(r.URL.Query().Get("pin")).To(Equal("false"))
			_, _ = w.Write([]byte(`{"Name":"a","Hash":"QmA","Size":"1"}`))
		}))
		defer server.Close()

		c := NewIPFSClient(WithIPFSAPIURL(server.URL), WithIPFSToken("fb-token"), WithPinOnAdd(false))
		_, err := c.Upload(ctx, imgPath)
		Expect(err).To(BeNil())
	})

	It("uploads json documents as files", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			file, header, err := r.FormFile("file")
			Expect(err).To(BeNil())
			defer file.Close()
			Expect(header.Filename).To(Equal("manifest.json"))
			Expect(header.Header.Get("Content-Type")).To(Equal("application/json"))
			_, _ = w.Write([]byte(`{"Name":"manifest.json","Hash":"QmManifest","Size":"20"}`))
		}))
		defer server.Close()

		c := NewIPFSClient(WithIPFSAPIURL(server.URL))
		pin, err := c.UploadJSON(ctx, "manifest.json", []byte(`{"files":[]}`))
		Expect(err).To(BeNil())
		Expect(pin.CID).To(Equal("QmManifest"))
	})

	It("pins by cid", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.URL.Path).To(Equal("/pin/add"))
			Expect(r.URL.Query().Get("arg")).To(Equal("QmRoot"))
			_, _ = w.Write([]byte(`{"Pins":["QmRoot"]}`))
		}))
		defer server.Close()

		c := NewIPFSClient(WithIPFSAPIURL(server.URL))
		Expect(c.Pin(ctx, "QmRoot", "")).To(Succeed())
	})

	It("classifies a node failure", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewIPFSClient(WithIPFSAPIURL(server.URL))
		_, err := c.Upload(ctx, imgPath)
		Expect(KindOf(err)).To(Equal(KindTransient))
	})

	Context("lastAddEntry", func() {
		It("returns the wrapping directory for multi line answers", func() {
			entry, err := lastAddEntry([]byte("{\"Name\":\"a\",\"Hash\":\"QmA\",\"Size\":\"1\"}\n{\"Name\":\"\",\"Hash\":\"QmDir\",\"Size\":\"9\"}\n"))
			Expect(err).To(BeNil())
			Expect(entry.Hash).To(Equal("QmDir"))
		})

		It("fails on an empty answer", func() {
			_, err := lastAddEntry([]byte(""))
			Expect(err).ToNot(BeNil())
		})

		It("fails on garbage", func() {
			_, err := lastAddEntry([]byte("not json"))
			Expect(err).ToNot(BeNil())
		})
	})
})
