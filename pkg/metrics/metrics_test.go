package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/x402punks/punk-pinner/pkg/metrics"
)

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	calls  int
}

func (f *fakeCounter) CountByStatus() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.counts
}

func (f *fakeCounter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func scrape() string {
	rec := httptest.NewRecorder()
	metrics.NewPrometheusMetricsHandler().Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

var _ = Describe("metrics", func() {
	Context("ParseBuckets", func() {
		It("falls back to the default buckets", func() {
			buckets, err := metrics.ParseBuckets("")
			Expect(err).To(BeNil())
			Expect(buckets).To(Equal(metrics.DefaultLatencyBuckets))
		})

		It("parses a comma separated list", func() {
			buckets, err := metrics.ParseBuckets("100, 200,300")
			Expect(err).To(BeNil())
			Expect(buckets).To(Equal([]float64{100, 200, 300}))
		})

		It("rejects garbage", func() {
			_, err := metrics.ParseBuckets("100,abc")
			Expect(err).ToNot(BeNil())
		})
	})

	Context("middleware", func() {
		It("counts requests by route pattern", func() {
			reg := prometheus.NewRegistry()
			m := metrics.NewMiddleware("test", nil)
			Expect(m.Register(reg)).To(Succeed())

			router := chi.NewRouter()
			router.Use(m.Handler)
			router.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			})

			for _, id := range []string{"a", "b"} {
				router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))
			}

			expected := `
# HELP punk_pinner_http_requests_total Number of HTTP requests partitioned by status code, method and HTTP path.
# TYPE punk_pinner_http_requests_total counter
punk_pinner_http_requests_total{code="404",method="GET",path="/jobs/{id}",service="test"} 2
`
			Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected), "punk_pinner_http_requests_total")).To(Succeed())
		})
	})

	Context("upload counters", func() {
		It("exposes uploads and rate limit hits", func() {
			metrics.IncreaseUploadsTotalMetric("fake", metrics.KindImage, "success")
			metrics.IncreaseRateLimitHitsMetric("fake")
			metrics.AddUploadAttemptsMetric("fake", 3)

			body := scrape()
			Expect(body).To(ContainSubstring(`punk_pinner_uploads_total{backend="fake",kind="image",outcome="success"}`))
			Expect(body).To(ContainSubstring(`punk_pinner_rate_limit_hits_total{backend="fake"}`))
			Expect(body).To(ContainSubstring(`punk_pinner_upload_attempts_total{backend="fake"}`))
		})
	})

	Context("job status updater", func() {
		It("reports known statuses without jobs as zero", func() {
			u := metrics.NewJobStatusUpdater(&fakeCounter{counts: map[string]int{"running": 2}}, time.Second, "pending", "running")
			u.Update()

			body := scrape()
			Expect(body).To(ContainSubstring(`punk_pinner_job_status_count{status="pending"} 0`))
			Expect(body).To(ContainSubstring(`punk_pinner_job_status_count{status="running"} 2`))
		})

		It("refreshes until the context is cancelled", func() {
			counter := &fakeCounter{counts: map[string]int{}}
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				metrics.NewJobStatusUpdater(counter, 10*time.Millisecond).Run(ctx)
			}()

			Eventually(counter.Calls).Should(BeNumerically(">=", 2))
			cancel()
			Eventually(done).Should(BeClosed())
		})
	})
})
