package db

import "testing"

func TestPoolStats_HealthyFlag(t *testing.T) {
	stats := &PoolStats{TotalConns: 4, IdleConns: 2, AcquiredConns: 2, MaxConns: 20, Healthy: true}
	if !stats.Healthy {
		t.Error("expected healthy")
	}
	if stats.IdleConns+stats.AcquiredConns != stats.TotalConns {
		t.Errorf("inconsistent test fixture: %+v", stats)
	}
}
