package circuitbreaker_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
)

func TestCircuitBreaker(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CircuitBreaker Suite")
}

var _ = Describe("Breaker", func() {
	var cb *circuitbreaker.Breaker

	Describe("NewBreaker", func() {
		It("should create a circuit breaker in closed state", func() {
			cb = circuitbreaker.NewBreaker(3, 30*time.Second)
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State transitions", func() {
		BeforeEach(func() {
			cb = circuitbreaker.NewBreaker(3, 100*time.Millisecond)
		})

		Context("when in closed state", func() {
			It("should not be open", func() {
				Expect(cb.IsOpen()).To(BeFalse())
			})

			It("should remain closed after failures below threshold", func() {
				cb.RecordFailure()
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				Expect(cb.IsOpen()).To(BeFalse())
			})

			It("should transition to open after reaching failure threshold", func() {
				cb.RecordFailure()
				cb.RecordFailure()
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})
		})

		Context("when in open state", func() {
			BeforeEach(func() {
				cb.RecordFailure()
				cb.RecordFailure()
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})

			It("should reject requests before the cooldown elapses", func() {
				Expect(cb.IsOpen()).To(BeTrue())
			})

			It("should record a next retry time", func() {
				st := cb.Status()
				Expect(st.NextRetry).NotTo(BeNil())
				Expect(st.LastFailure).NotTo(BeNil())
			})

			It("should transition to half-open after the cooldown", func() {
				time.Sleep(150 * time.Millisecond)
				Expect(cb.IsOpen()).To(BeFalse())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})
		})

		Context("when in half-open state", func() {
			BeforeEach(func() {
				cb.RecordFailure()
				cb.RecordFailure()
				cb.RecordFailure()
				time.Sleep(150 * time.Millisecond)
				Expect(cb.IsOpen()).To(BeFalse())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should close on a successful probe", func() {
				cb.RecordSuccess()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				Expect(cb.Status().Failures).To(Equal(0))
			})

			It("should reopen with a fresh cooldown on a failed probe", func() {
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
				Expect(cb.IsOpen()).To(BeTrue())
			})
		})

		It("should reset the failure count on success", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State names", func() {
		It("should render states as strings", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("closed"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("open"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("half-open"))
		})
	})
})
