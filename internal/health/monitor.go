// Package health tracks how the external services behind the API are doing.
package health

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Monitor tracks call outcomes for one external service
type Monitor struct {
	mu                   sync.RWMutex
	service              string
	totalRequests        int64
	successfulRequests   int64
	failedRequests       int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
	now                  func() time.Time
}

// FailureRecord is a single failed call
type FailureRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Error     string    `json:"error"`
}

// Status is the health of one service
type Status struct {
	Service             string          `json:"service"`
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
}

// NewMonitor creates a monitor for the named service
func NewMonitor(service string) *Monitor {
	return &Monitor{
		service:              service,
		maxRecentFailures:    20,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		recentFailures:       make([]FailureRecord, 0, 20),
		now:                  time.Now,
	}
}

// RecordSuccess records a successful call
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.successfulRequests++
	m.consecutiveFailures = 0
	m.lastSuccessTime = m.now()
}

// RecordFailure records a failed call
func (m *Monitor) RecordFailure(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	m.failedRequests++
	m.consecutiveFailures++
	m.lastFailureTime = m.now()

	msg := ""
	if err != nil {
		msg = err.Error()
	}
	m.recentFailures = append(m.recentFailures, FailureRecord{
		Timestamp: m.lastFailureTime,
		Operation: operation,
		Error:     msg,
	})
	if len(m.recentFailures) > m.maxRecentFailures {
		m.recentFailures = m.recentFailures[1:]
	}
}

// Record records the outcome of a call
func (m *Monitor) Record(operation string, err error) {
	if err != nil {
		m.RecordFailure(operation, err)
		return
	}
	m.RecordSuccess()
}

// GetStatus returns the current health status
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	status := Status{
		Service:             m.service,
		TotalRequests:       m.totalRequests,
		SuccessfulRequests:  m.successfulRequests,
		FailedRequests:      m.failedRequests,
		ConsecutiveFailures: m.consecutiveFailures,
		RecentFailures:      make([]FailureRecord, len(m.recentFailures)),
		HealthIssues:        []string{},
		IsHealthy:           true,
	}
	copy(status.RecentFailures, m.recentFailures)

	if m.totalRequests > 0 {
		status.SuccessRate = float64(m.successfulRequests) / float64(m.totalRequests)
	} else {
		status.SuccessRate = 1.0
	}
	if !m.lastFailureTime.IsZero() {
		t := m.lastFailureTime
		status.LastFailureTime = &t
	}
	if !m.lastSuccessTime.IsZero() {
		t := m.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if m.totalRequests >= 10 && status.SuccessRate < (1.0-m.failureThreshold) {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "High failure rate detected (>20%)")
	}
	if m.consecutiveFailures >= m.consecutiveThreshold {
		status.IsHealthy = false
		status.HealthIssues = append(status.HealthIssues, "Multiple consecutive failures detected")
	}

	m.analyzeFailurePatterns(&status)
	return status
}

// analyzeFailurePatterns flags an error category behind most recent failures
func (m *Monitor) analyzeFailurePatterns(status *Status) {
	if len(m.recentFailures) < 3 {
		return
	}

	counts := make(map[string]int)
	for _, f := range m.recentFailures {
		counts[categorizeError(f.Error)]++
	}

	total := len(m.recentFailures)
	for category, count := range counts {
		if float64(count)/float64(total) <= 0.5 {
			continue
		}
		switch category {
		case "timeout":
			status.HealthIssues = append(status.HealthIssues, "Frequent timeout errors detected")
		case "rate_limit":
			status.HealthIssues = append(status.HealthIssues, "Rate limiting detected")
		case "authentication":
			status.HealthIssues = append(status.HealthIssues, "Authentication errors detected, check API keys")
		case "network":
			status.HealthIssues = append(status.HealthIssues, "Network connectivity issues detected")
		}
	}
}

func categorizeError(errorMsg string) string {
	errorMsg = strings.ToLower(errorMsg)

	if strings.Contains(errorMsg, "timeout") || strings.Contains(errorMsg, "deadline") {
		return "timeout"
	}
	if strings.Contains(errorMsg, "rate limit") || strings.Contains(errorMsg, "429") || strings.Contains(errorMsg, "too_many_attempts") {
		return "rate_limit"
	}
	if strings.Contains(errorMsg, "unauthorized") || strings.Contains(errorMsg, "401") || strings.Contains(errorMsg, "403") {
		return "authentication"
	}
	if strings.Contains(errorMsg, "network") || strings.Contains(errorMsg, "connection") || strings.Contains(errorMsg, "dns") {
		return "network"
	}
	return "other"
}

// Registry holds one monitor per external service
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*Monitor
}

func NewRegistry() *Registry {
	return &Registry{monitors: make(map[string]*Monitor)}
}

// Monitor returns the monitor for service, creating it on first use
func (r *Registry) Monitor(service string) *Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.monitors[service]
	if !ok {
		m = NewMonitor(service)
		r.monitors[service] = m
	}
	return m
}

// Statuses returns every service's status ordered by name
func (r *Registry) Statuses() []Status {
	r.mu.Lock()
	monitors := make([]*Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	r.mu.Unlock()

	out := make([]Status, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, m.GetStatus())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}
