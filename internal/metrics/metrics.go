package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex        sync.RWMutex
	attempts     map[string]int64
	failures     map[string]int64
	retries      map[string]int64
	pages        map[string]int64
	latencies    map[string][]time.Duration
	served       map[string]map[string]int64
	healthStatus map[string]bool
	startTime    time.Time
}

type Snapshot struct {
	Uptime    time.Duration               `json:"uptime"`
	Endpoints map[string]EndpointMetrics  `json:"endpoints"`
	Served    map[string]map[string]int64 `json:"served"`
}

type EndpointMetrics struct {
	Attempts   int64         `json:"attempts"`
	Failures   int64         `json:"failures"`
	Retries    int64         `json:"retries"`
	Pages      int64         `json:"pages"`
	Healthy    bool          `json:"healthy"`
	AvgLatency time.Duration `json:"avg_latency"`
	P50Latency time.Duration `json:"p50_latency"`
	P95Latency time.Duration `json:"p95_latency"`
	P99Latency time.Duration `json:"p99_latency"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		attempts:     make(map[string]int64),
		failures:     make(map[string]int64),
		retries:      make(map[string]int64),
		pages:        make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
		served:       make(map[string]map[string]int64),
		healthStatus: make(map[string]bool),
		startTime:    time.Now(),
	}
}

func (m *Metrics) RecordAttempt(endpoint string, duration time.Duration, success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.attempts[endpoint]++
	if !success {
		m.failures[endpoint]++
	}

	m.latencies[endpoint] = append(m.latencies[endpoint], duration)
	if len(m.latencies[endpoint]) > 1000 {
		m.latencies[endpoint] = m.latencies[endpoint][1:]
	}
}

func (m *Metrics) RecordRetry(endpoint string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.retries[endpoint]++
}

func (m *Metrics) RecordPage(endpoint string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.pages[endpoint]++
}

func (m *Metrics) RecordServed(dataset, source string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.served[dataset] == nil {
		m.served[dataset] = make(map[string]int64)
	}
	m.served[dataset][source]++
}

func (m *Metrics) UpdateHealthStatus(endpoint string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[endpoint] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:    time.Since(m.startTime),
		Endpoints: make(map[string]EndpointMetrics),
		Served:    make(map[string]map[string]int64, len(m.served)),
	}

	for dataset, sources := range m.served {
		copied := make(map[string]int64, len(sources))
		for source, n := range sources {
			copied[source] = n
		}
		snap.Served[dataset] = copied
	}

	allEndpoints := make(map[string]bool)
	for endpoint := range m.attempts {
		allEndpoints[endpoint] = true
	}
	for endpoint := range m.pages {
		allEndpoints[endpoint] = true
	}
	for endpoint := range m.healthStatus {
		allEndpoints[endpoint] = true
	}

	for endpoint := range allEndpoints {
		em := EndpointMetrics{
			Attempts: m.attempts[endpoint],
			Failures: m.failures[endpoint],
			Retries:  m.retries[endpoint],
			Pages:    m.pages[endpoint],
			Healthy:  m.healthStatus[endpoint],
		}

		durations := m.latencies[endpoint]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			em.AvgLatency = average(sorted)
			em.P50Latency = percentile(sorted, 0.50)
			em.P95Latency = percentile(sorted, 0.95)
			em.P99Latency = percentile(sorted, 0.99)
		}

		snap.Endpoints[endpoint] = em
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
