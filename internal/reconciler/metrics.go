package reconciler

import (
	"sort"
	"sync"
	"time"

	"mcpdeck/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	statusQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpdeck_status_queries_total",
			Help: "Supervisor status queries issued by the reconciler, by result",
		},
		[]string{"result"},
	)

	syncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcpdeck_status_syncs_total",
			Help: "Full status syncs, by result",
		},
		[]string{"result"},
	)
)

// SyncMetrics tracks status query outcomes per server name. mcpdeck status
// reports them.
type SyncMetrics struct {
	mu sync.RWMutex

	servers map[string]*serverMetrics

	totalSyncs         int64
	totalSyncFailures  int64
	totalQueries       int64
	totalQueryFailures int64
	lastSyncAt         time.Time
}

type serverMetrics struct {
	QueryAttempts int64
	QueryFailures int64
	LastQueryAt   time.Time
	LastFailureAt time.Time
	LastError     string
}

// NewSyncMetrics creates an empty metrics set.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{servers: make(map[string]*serverMetrics)}
}

func (m *SyncMetrics) getOrCreate(name string) *serverMetrics {
	if sm, ok := m.servers[name]; ok {
		return sm
	}
	sm := &serverMetrics{}
	m.servers[name] = sm
	return sm
}

// RecordQuerySuccess records a status query that returned an answer.
func (m *SyncMetrics) RecordQuerySuccess(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm := m.getOrCreate(name)
	sm.QueryAttempts++
	sm.LastQueryAt = time.Now()
	m.totalQueries++
	statusQueriesTotal.WithLabelValues("success").Inc()
}

// RecordQueryFailure records a status query that failed.
func (m *SyncMetrics) RecordQueryFailure(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	sm := m.getOrCreate(name)
	sm.QueryAttempts++
	sm.QueryFailures++
	sm.LastQueryAt = now
	sm.LastFailureAt = now
	sm.LastError = err.Error()
	m.totalQueries++
	m.totalQueryFailures++
	statusQueriesTotal.WithLabelValues("error").Inc()

	logging.Warn("Reconciler", "Status query for %s failed, treating as stopped: %v (failures: %d)",
		name, err, sm.QueryFailures)
}

// RecordSync records the outcome of a full sync.
func (m *SyncMetrics) RecordSync(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalSyncs++
	m.lastSyncAt = time.Now()
	result := "success"
	if err != nil {
		m.totalSyncFailures++
		result = "error"
	}
	syncsTotal.WithLabelValues(result).Inc()
}

// Forget drops the per-name metrics of servers that are no longer
// configured.
func (m *SyncMetrics) Forget(keep []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wanted := make(map[string]bool, len(keep))
	for _, name := range keep {
		wanted[name] = true
	}
	for name := range m.servers {
		if !wanted[name] {
			delete(m.servers, name)
		}
	}
}

// SyncMetricsSummary is a read-only copy of the metrics.
type SyncMetricsSummary struct {
	TotalSyncs         int64               `json:"totalSyncs"`
	TotalSyncFailures  int64               `json:"totalSyncFailures"`
	TotalQueries       int64               `json:"totalQueries"`
	TotalQueryFailures int64               `json:"totalQueryFailures"`
	QueryFailureRate   float64             `json:"queryFailureRate"`
	LastSyncAt         time.Time           `json:"lastSyncAt,omitempty"`
	Servers            []ServerMetricsView `json:"servers"`
}

// ServerMetricsView is the per-name part of SyncMetricsSummary.
type ServerMetricsView struct {
	Name          string    `json:"name"`
	QueryAttempts int64     `json:"queryAttempts"`
	QueryFailures int64     `json:"queryFailures"`
	LastQueryAt   time.Time `json:"lastQueryAt,omitempty"`
	LastFailureAt time.Time `json:"lastFailureAt,omitempty"`
	LastError     string    `json:"lastError,omitempty"`
}

// Summary returns a snapshot of the metrics, servers sorted by name.
func (m *SyncMetrics) Summary() SyncMetricsSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := SyncMetricsSummary{
		TotalSyncs:         m.totalSyncs,
		TotalSyncFailures:  m.totalSyncFailures,
		TotalQueries:       m.totalQueries,
		TotalQueryFailures: m.totalQueryFailures,
		LastSyncAt:         m.lastSyncAt,
		Servers:            make([]ServerMetricsView, 0, len(m.servers)),
	}
	if m.totalQueries > 0 {
		s.QueryFailureRate = float64(m.totalQueryFailures) / float64(m.totalQueries)
	}
	for name, sm := range m.servers {
		s.Servers = append(s.Servers, ServerMetricsView{
			Name:          name,
			QueryAttempts: sm.QueryAttempts,
			QueryFailures: sm.QueryFailures,
			LastQueryAt:   sm.LastQueryAt,
			LastFailureAt: sm.LastFailureAt,
			LastError:     sm.LastError,
		})
	}
	sort.Slice(s.Servers, func(i, j int) bool { return s.Servers[i].Name < s.Servers[j].Name })
	return s
}
