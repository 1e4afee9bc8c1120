package utils

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("client") {
			t.Fatalf("запрос %d должен проходить", i+1)
		}
	}
	if limiter.Allow("client") {
		t.Error("запрос сверх лимита должен отклоняться")
	}

	// Лимиты считаются отдельно по ключам
	if !limiter.Allow("other") {
		t.Error("другой клиент не должен упираться в чужой лимит")
	}
}

func TestRateLimiterWindowExpiry(t *testing.T) {
	limiter := NewRateLimiter(1, 10*time.Millisecond)

	if !limiter.Allow("client") {
		t.Fatal("первый запрос должен проходить")
	}
	if limiter.Allow("client") {
		t.Fatal("второй запрос в окне должен отклоняться")
	}

	time.Sleep(15 * time.Millisecond)
	if !limiter.Allow("client") {
		t.Error("после истечения окна запрос должен проходить")
	}
}

func TestRateLimiterReset(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)

	limiter.Allow("client")
	if limiter.GetRemaining("client") != 0 {
		t.Errorf("остаток: got %v want 0", limiter.GetRemaining("client"))
	}

	limiter.Reset("client")
	if !limiter.Allow("client") {
		t.Error("после сброса запрос должен проходить")
	}
}

func TestMetricsDebtOperations(t *testing.T) {
	m := GetMetrics()
	m.ResetMetrics()

	m.RecordDebtOperation("create", nil)
	m.RecordDebtOperation("payment", nil)
	m.RecordDebtOperation("payment", nil)
	m.RecordDebtOperation("settle", nil)

	snapshot := m.GetMetricsSnapshot()
	if snapshot["debts_created"].(int64) != 1 {
		t.Errorf("debts_created: got %v want 1", snapshot["debts_created"])
	}
	if snapshot["payments_applied"].(int64) != 2 {
		t.Errorf("payments_applied: got %v want 2", snapshot["payments_applied"])
	}
	if snapshot["debts_settled"].(int64) != 1 {
		t.Errorf("debts_settled: got %v want 1", snapshot["debts_settled"])
	}
}
