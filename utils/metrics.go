package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики графиков платежей
	SchedulesCreated int64
	SchedulesRead    int64
	SchedulesDeleted int64
	LastScheduleOp   time.Time

	// Метрики кэша
	CacheHits   int64
	CacheMisses int64
	CacheErrors int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if failed {
		m.FailedRequests++
	}
}

// RecordScheduleOperation записывает метрики операции с графиком платежей
func (m *Metrics) RecordScheduleOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastScheduleOp = time.Now()

	switch operation {
	case "create":
		m.SchedulesCreated++
	case "read":
		m.SchedulesRead++
	case "delete":
		m.SchedulesDeleted++
	}

	if err != nil {
		m.recordErrorLocked(err)
	}
}

// RecordCacheHit записывает попадание в кэш
func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

// RecordCacheMiss записывает промах кэша
func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

// RecordCacheError записывает ошибку кэша
func (m *Metrics) RecordCacheError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheErrors++
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}
	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_requests":    m.TotalRequests,
		"failed_requests":   m.FailedRequests,
		"average_latency":   m.AverageLatency.String(),
		"schedules_created": m.SchedulesCreated,
		"schedules_read":    m.SchedulesRead,
		"schedules_deleted": m.SchedulesDeleted,
		"cache_hits":        m.CacheHits,
		"cache_misses":      m.CacheMisses,
		"cache_errors":      m.CacheErrors,
		"error_count":       m.ErrorCount,
		"last_error_time":   m.LastErrorTime,
		"error_types":       m.ErrorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.SchedulesCreated = 0
	m.SchedulesRead = 0
	m.SchedulesDeleted = 0
	m.CacheHits = 0
	m.CacheMisses = 0
	m.CacheErrors = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
