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

	// Метрики долгов
	DebtsCreated      int64
	DebtsSettled      int64
	PaymentsApplied   int64
	ReportsGenerated  int64
	EmailsSent        int64
	LastDebtOperation time.Time

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
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.FailedRequests++
		m.recordErrorLocked(err)
	}
}

// RecordDebtOperation записывает метрики операции с долгом
func (m *Metrics) RecordDebtOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastDebtOperation = time.Now()

	switch operation {
	case "create":
		m.DebtsCreated++
	case "payment":
		m.PaymentsApplied++
	case "settle":
		m.DebtsSettled++
	case "report":
		m.ReportsGenerated++
	case "email":
		m.EmailsSent++
	}

	if err != nil {
		m.recordErrorLocked(err)
	}
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

// recordErrorLocked обновляет счетчики ошибок, мьютекс должен быть взят
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
		"average_latency":   m.AverageLatency,
		"debts_created":     m.DebtsCreated,
		"debts_settled":     m.DebtsSettled,
		"payments_applied":  m.PaymentsApplied,
		"reports_generated": m.ReportsGenerated,
		"emails_sent":       m.EmailsSent,
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
	m.DebtsCreated = 0
	m.DebtsSettled = 0
	m.PaymentsApplied = 0
	m.ReportsGenerated = 0
	m.EmailsSent = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
