package fetch_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
	"github.com/dcmon/telemetry-gateway/internal/fetch"
)

// pagedUpstream serves slices of a fixed dataset using $skip/$top, in an
// OData-style value envelope with a totalRecords sibling.
func pagedUpstream(total int, hits *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		skip, _ := strconv.Atoi(r.URL.Query().Get("$skip"))
		top, _ := strconv.Atoi(r.URL.Query().Get("$top"))

		var records []json.RawMessage
		for i := skip; i < skip+top && i < total; i++ {
			records = append(records, json.RawMessage(fmt.Sprintf(`{"sensor":"s%d"}`, i)))
		}

		body, _ := json.Marshal(map[string]any{
			"value":        records,
			"totalRecords": total,
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write(body)
	}
}

var _ = Describe("IsPageable", func() {
	It("should detect pagination markers", func() {
		Expect(fetch.IsPageable("http://u.example.com/api/sensors?$top=50")).To(BeTrue())
		Expect(fetch.IsPageable("http://u.example.com/api/sensors?$skip=10")).To(BeTrue())
		Expect(fetch.IsPageable("http://u.example.com/api/sensors?$filter=hall+eq+'A'")).To(BeTrue())
		Expect(fetch.IsPageable("http://u.example.com/api/sensors?$count=true")).To(BeTrue())
	})

	It("should not flag plain URLs", func() {
		Expect(fetch.IsPageable("http://u.example.com/api/sensors")).To(BeFalse())
		Expect(fetch.IsPageable("http://u.example.com/api/sensors?limit=5")).To(BeFalse())
	})
})

var _ = Describe("Paginated fetch", func() {
	var (
		registry *circuitbreaker.Registry
		client   *fetch.Client
		ctx      context.Context
		hits     atomic.Int32
	)

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(3, 30*time.Second)
		client = newTestClient(registry)
		ctx = context.Background()
		hits.Store(0)
	})

	It("should halt on a short page and return all accumulated records", func() {
		server := httptest.NewServer(pagedUpstream(62, &hits))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 50}
		records, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api/sensors?$filter=hall+eq+'A'"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(62))
		Expect(hits.Load()).To(Equal(int32(2)))
	})

	It("should stop once the reported total is reached", func() {
		// Total is an exact multiple of the page size, so the short-page
		// signal never fires; the reported total is what halts the loop.
		server := httptest.NewServer(pagedUpstream(100, &hits))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 50}
		records, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api/sensors?$top=50"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(100))
		Expect(hits.Load()).To(Equal(int32(2)))
	})

	It("should replace pre-existing $skip and $top values", func() {
		var skips []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			skips = append(skips, r.URL.Query().Get("$skip"))
			Expect(r.URL.Query()["$skip"]).To(HaveLen(1))
			Expect(r.URL.Query().Get("$top")).To(Equal("10"))
			w.Write([]byte(`{"value":[1]}`))
		}))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 10}
		_, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api?$skip=999&$top=5000"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(skips).To(Equal([]string{"0"}))
	})

	It("should enforce the hard page cap against a lying upstream", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			// Always a full page, always claiming more records exist.
			var records []json.RawMessage
			for i := 0; i < 5; i++ {
				records = append(records, json.RawMessage(`{}`))
			}
			body, _ := json.Marshal(map[string]any{"value": records, "totalRecords": 1000000})
			w.Write(body)
		}))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 5}
		records, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api?$top=5"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(hits.Load()).To(Equal(int32(20)))
		Expect(records).To(HaveLen(100))
	})

	It("should return a partial result when a later page fails", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			n := hits.Add(1)
			if n >= 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			var records []json.RawMessage
			for i := 0; i < 50; i++ {
				records = append(records, json.RawMessage(`{}`))
			}
			body, _ := json.Marshal(map[string]any{"value": records})
			w.Write(body)
		}))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 50}
		records, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api?$top=50"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(100))
	})

	It("should propagate a first-page fault", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 50}
		_, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api?$top=50"}, policy)
		Expect(err).To(HaveOccurred())

		var httpErr *fetch.HTTPError
		Expect(errors.As(err, &httpErr)).To(BeTrue())
		Expect(httpErr.StatusCode).To(Equal(http.StatusInternalServerError))
	})

	It("should skip pagination for non-pageable URLs even when enabled", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			Expect(r.URL.RawQuery).To(BeEmpty())
			w.Write([]byte(`{"value":[1,2,3]}`))
		}))
		defer server.Close()

		policy := fetch.Policy{UsePagination: true, PageSize: 50}
		records, err := client.Fetch(ctx, fetch.Request{URL: server.URL + "/api"}, policy)
		Expect(err).NotTo(HaveOccurred())
		Expect(records).To(HaveLen(3))
		Expect(hits.Load()).To(Equal(int32(1)))
	})
})
