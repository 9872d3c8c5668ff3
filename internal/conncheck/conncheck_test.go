package conncheck

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wgwarden/internal/database"
)

func TestTargetFor(t *testing.T) {
	tests := []struct {
		subnet  string
		want    string
		wantErr bool
	}{
		{"10.0.0.5/32", "10.0.0.5", false},
		{"10.0.0.0/24", "10.0.0.1", false},
		{"192.168.100.0/30", "192.168.100.1", false},
		{"", "", true},
		{"not-a-subnet", "", true},
	}
	for _, tt := range tests {
		got, err := TargetFor(&database.Client{Name: "alice", Subnet: tt.subnet})
		if tt.wantErr {
			if err == nil {
				t.Errorf("TargetFor(%q) error = nil, want error", tt.subnet)
			}
			continue
		}
		if err != nil {
			t.Errorf("TargetFor(%q) error = %v", tt.subnet, err)
			continue
		}
		if got != tt.want {
			t.Errorf("TargetFor(%q) = %q, want %q", tt.subnet, got, tt.want)
		}
	}
}

func newTestChecker() (*Checker, *[]*database.TestResult) {
	var recorded []*database.TestResult
	c := NewChecker(false)
	c.record = func(r *database.TestResult) error {
		recorded = append(recorded, r)
		return nil
	}
	return c, &recorded
}

func TestTestSuccessRecordsLatency(t *testing.T) {
	c, recorded := newTestChecker()
	c.pingFn = func(ctx context.Context, target string) (time.Duration, error) {
		return 42 * time.Millisecond, nil
	}

	result := c.Test(context.Background(), &database.Client{ID: "id-1", Subnet: "10.0.0.5/32"})
	if !result.Success {
		t.Fatalf("Success = false, want true")
	}
	if result.Target != "10.0.0.5" {
		t.Errorf("Target = %q, want %q", result.Target, "10.0.0.5")
	}
	if result.LatencyMs == nil || *result.LatencyMs != 42 {
		t.Errorf("LatencyMs = %v, want 42", result.LatencyMs)
	}
	if len(*recorded) != 1 {
		t.Errorf("recorded results = %d, want 1", len(*recorded))
	}
}

func TestTestRetriesThenSucceeds(t *testing.T) {
	c, _ := newTestChecker()
	calls := 0
	c.pingFn = func(ctx context.Context, target string) (time.Duration, error) {
		calls++
		if calls < 2 {
			return 0, fmt.Errorf("no reply")
		}
		return 10 * time.Millisecond, nil
	}

	result := c.Test(context.Background(), &database.Client{ID: "id-1", Subnet: "10.0.0.5/32"})
	if !result.Success {
		t.Fatalf("Success = false after retry, want true")
	}
	if calls != 2 {
		t.Errorf("ping calls = %d, want 2", calls)
	}
}

func TestTestAllRetriesFail(t *testing.T) {
	c, recorded := newTestChecker()
	calls := 0
	c.pingFn = func(ctx context.Context, target string) (time.Duration, error) {
		calls++
		return 0, fmt.Errorf("no reply within 2s")
	}

	result := c.Test(context.Background(), &database.Client{ID: "id-1", Subnet: "10.0.0.5/32"})
	if result.Success {
		t.Fatalf("Success = true with failing pings, want false")
	}
	if calls != 3 {
		t.Errorf("ping calls = %d, want 3", calls)
	}
	if result.Error == "" {
		t.Errorf("Error = empty, want last ping error")
	}
	if result.LatencyMs != nil {
		t.Errorf("LatencyMs = %v on failure, want nil", *result.LatencyMs)
	}
	if len(*recorded) != 1 {
		t.Errorf("recorded results = %d, want 1", len(*recorded))
	}
}

func TestTestBadSubnetRecordedAsFailure(t *testing.T) {
	c, recorded := newTestChecker()
	c.pingFn = func(ctx context.Context, target string) (time.Duration, error) {
		t.Fatal("ping should not run without a target")
		return 0, nil
	}

	result := c.Test(context.Background(), &database.Client{ID: "id-1", Name: "alice"})
	if result.Success {
		t.Fatalf("Success = true without subnet, want false")
	}
	if len(*recorded) != 1 {
		t.Errorf("recorded results = %d, want 1", len(*recorded))
	}
}
