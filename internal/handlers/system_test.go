package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
)

func TestGetSystemMetrics(t *testing.T) {
	origCPU, origMem := cpuPercent, virtualMemory
	t.Cleanup(func() { cpuPercent, virtualMemory = origCPU, origMem })

	cpuPercent = func(interval time.Duration, percpu bool) ([]float64, error) {
		return []float64{12.5}, nil
	}
	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 41.2}, nil
	}

	w := httptest.NewRecorder()
	GetSystemMetrics(w, httptest.NewRequest("GET", "/api/v1/monitoring/system", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := decodeBody(t, w)
	if body["cpu_percent"] != 12.5 {
		t.Errorf("cpu_percent = %v, want 12.5", body["cpu_percent"])
	}
	if body["memory_percent"] != 41.2 {
		t.Errorf("memory_percent = %v, want 41.2", body["memory_percent"])
	}
	if body["timestamp"] == nil {
		t.Errorf("timestamp missing from response")
	}
}

func TestGetSystemMetricsPartialFailure(t *testing.T) {
	origCPU, origMem := cpuPercent, virtualMemory
	t.Cleanup(func() { cpuPercent, virtualMemory = origCPU, origMem })

	cpuPercent = func(interval time.Duration, percpu bool) ([]float64, error) {
		return nil, fmt.Errorf("proc not mounted")
	}
	virtualMemory = func() (*mem.VirtualMemoryStat, error) {
		return &mem.VirtualMemoryStat{UsedPercent: 41.2}, nil
	}

	w := httptest.NewRecorder()
	GetSystemMetrics(w, httptest.NewRequest("GET", "/api/v1/monitoring/system", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 on partial failure", w.Code)
	}
	body := decodeBody(t, w)
	if body["cpu_error"] == nil {
		t.Errorf("cpu_error missing from response")
	}
	if body["memory_percent"] != 41.2 {
		t.Errorf("memory_percent = %v, want 41.2", body["memory_percent"])
	}
}
