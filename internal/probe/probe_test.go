package probe_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcmon/telemetry-gateway/internal/metrics"
	"github.com/dcmon/telemetry-gateway/internal/probe"
)

func TestProbe(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Probe Suite")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Suppress logs in tests
	}))
}

var _ = Describe("Prober", func() {
	var (
		prober *probe.Prober
		ctx    context.Context
	)

	BeforeEach(func() {
		prober = probe.NewProber(testLogger())
		ctx = context.Background()
	})

	Describe("IsReachable", func() {
		It("should report true for a healthy endpoint", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			Expect(prober.IsReachable(ctx, server.URL)).To(BeTrue())
		})

		It("should treat error status codes as reachable", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			Expect(prober.IsReachable(ctx, server.URL)).To(BeTrue())
		})

		It("should fall back to GET when HEAD transport-fails", func() {
			var methods []string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				methods = append(methods, r.Method)
				if r.Method == http.MethodHead {
					// Kill the connection so HEAD fails at the transport
					// level rather than with an HTTP status.
					hj, ok := w.(http.Hijacker)
					Expect(ok).To(BeTrue())
					conn, _, err := hj.Hijack()
					Expect(err).NotTo(HaveOccurred())
					conn.Close()
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			Expect(prober.IsReachable(ctx, server.URL)).To(BeTrue())
			Expect(methods).To(Equal([]string{http.MethodHead, http.MethodGet}))
		})

		It("should report false for a dead endpoint", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			server.Close()

			Expect(prober.IsReachable(ctx, server.URL)).To(BeFalse())
		})
	})

	Describe("Diagnose", func() {
		It("should report a healthy OData endpoint with no recommendations", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"value":[{"rack":"r1"}]}`))
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.Reachable).To(BeTrue())
			Expect(report.StatusCode).To(Equal(http.StatusOK))
			Expect(report.ContentType).To(ContainSubstring("application/json"))
			Expect(report.BodyShape).To(Equal("value-wrapped"))
			Expect(report.Latency).To(BeNumerically(">", 0))
			Expect(report.Recommendations).To(BeEmpty())
		})

		It("should flag authentication issues", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("authentication issue")))
		})

		It("should flag path issues on 404", func() {
			server := httptest.NewServer(http.NotFoundHandler())
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("path issue")))
		})

		It("should flag server issues on 5xx", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("server issue")))
		})

		It("should classify a non-standard body", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status":"ok"}`))
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.BodyShape).To(Equal("non-standard"))
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("no recognizable record array")))
		})

		It("should warn when a page-able URL has no $top", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"value":[]}`))
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL+"/api?$filter=x")
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("no $top parameter")))
		})

		It("should warn about an unsafely large page size", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"value":[]}`))
			}))
			defer server.Close()

			report := prober.Diagnose(ctx, server.URL+"/api?$top=5000")
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("unsafely large")))
		})

		It("should report an unreachable endpoint", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
			server.Close()

			report := prober.Diagnose(ctx, server.URL)
			Expect(report.Reachable).To(BeFalse())
			Expect(report.Recommendations).To(ContainElement(ContainSubstring("unreachable")))
		})
	})
})

var _ = Describe("Watch", func() {
	It("should emit health transitions to the collector", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		log := testLogger()
		collector := metrics.NewCollector(100, log)
		watchCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		collector.Start(watchCtx)

		prober := probe.NewProber(log)
		go probe.Watch(watchCtx, prober, server.URL, 10*time.Millisecond, collector, log)

		Eventually(func() bool {
			return collector.Snapshot().Endpoints[server.URL].Healthy
		}, time.Second).Should(BeTrue())
	})
})
