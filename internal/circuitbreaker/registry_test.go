package circuitbreaker_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(3, 30*time.Second)
	})

	Describe("Get", func() {
		It("should return the same breaker for the same endpoint", func() {
			cb1 := registry.Get("http://dcim.example.com/api/racks")
			cb2 := registry.Get("http://dcim.example.com/api/racks")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should track endpoints differing only by query string separately", func() {
			cb1 := registry.Get("http://dcim.example.com/api/racks?$skip=0")
			cb2 := registry.Get("http://dcim.example.com/api/racks?$skip=50")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})
	})

	Describe("IsOpen", func() {
		It("should report closed for an unknown endpoint without creating a circuit", func() {
			Expect(registry.IsOpen("http://dcim.example.com/api/sensors")).To(BeFalse())
			Expect(registry.Snapshot()).To(BeEmpty())
		})

		It("should report open after the failure threshold", func() {
			endpoint := "http://dcim.example.com/api/sensors"
			registry.RecordFailure(endpoint)
			registry.RecordFailure(endpoint)
			registry.RecordFailure(endpoint)
			Expect(registry.IsOpen(endpoint)).To(BeTrue())
		})
	})

	Describe("RecordSuccess", func() {
		It("should be a no-op for an unknown endpoint", func() {
			registry.RecordSuccess("http://dcim.example.com/api/racks")
			Expect(registry.Snapshot()).To(BeEmpty())
		})

		It("should close a tripped circuit", func() {
			endpoint := "http://dcim.example.com/api/racks"
			registry.RecordFailure(endpoint)
			registry.RecordFailure(endpoint)
			registry.RecordFailure(endpoint)
			Expect(registry.IsOpen(endpoint)).To(BeTrue())

			registry.RecordSuccess(endpoint)
			Expect(registry.IsOpen(endpoint)).To(BeFalse())
		})
	})

	Describe("Snapshot", func() {
		It("should expose per-endpoint status", func() {
			registry.RecordFailure("http://a.example.com")
			registry.RecordFailure("http://b.example.com")
			registry.RecordFailure("http://b.example.com")
			registry.RecordFailure("http://b.example.com")

			snap := registry.Snapshot()
			Expect(snap).To(HaveLen(2))
			Expect(snap["http://a.example.com"].State).To(Equal(circuitbreaker.StateClosed))
			Expect(snap["http://a.example.com"].Failures).To(Equal(1))
			Expect(snap["http://b.example.com"].State).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Describe("Reset", func() {
		It("should drop all circuits", func() {
			registry.RecordFailure("http://a.example.com")
			registry.Reset()
			Expect(registry.Snapshot()).To(BeEmpty())
		})
	})

	Describe("Concurrent access", func() {
		It("should not corrupt counters under concurrent updates", func() {
			var wg sync.WaitGroup
			for i := 0; i < 10; i++ {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					endpoint := fmt.Sprintf("http://upstream-%d.example.com", n%3)
					for j := 0; j < 50; j++ {
						registry.RecordFailure(endpoint)
						registry.IsOpen(endpoint)
						registry.RecordSuccess(endpoint)
					}
				}(i)
			}
			wg.Wait()

			Expect(registry.Snapshot()).To(HaveLen(3))
		})
	})
})
