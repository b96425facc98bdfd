package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEstimateMarshalUnknown(t *testing.T) {
	data, err := json.Marshal(EstimateUnknown)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `"unknown"` {
		t.Errorf(`expected "unknown", got %s`, data)
	}
}

func TestEstimateUnmarshalBothForms(t *testing.T) {
	var e Estimate
	if err := json.Unmarshal([]byte(`12.5`), &e); err != nil {
		t.Fatalf("Unmarshal number failed: %v", err)
	}
	if e != 12.5 {
		t.Errorf("expected 12.5, got %v", e)
	}

	if err := json.Unmarshal([]byte(`"unknown"`), &e); err != nil {
		t.Fatalf("Unmarshal string failed: %v", err)
	}
	if e != EstimateUnknown {
		t.Errorf("expected EstimateUnknown, got %v", e)
	}

	if err := json.Unmarshal([]byte(`[1]`), &e); err == nil {
		t.Error("expected error for non-scalar estimate")
	}
}

func TestNewProgressSnapshot(t *testing.T) {
	s := NewProgressSnapshot(5, 10, 10*time.Second)
	if s.ProgressPercent != 50 {
		t.Errorf("expected 50%%, got %v", s.ProgressPercent)
	}
	if s.ItemsPerSecond != 0.5 {
		t.Errorf("expected 0.5 items/s, got %v", s.ItemsPerSecond)
	}
	if s.EstimatedTimeRemaining != 10 {
		t.Errorf("expected 10s remaining, got %v", s.EstimatedTimeRemaining)
	}
}

func TestNewProgressSnapshotNoRate(t *testing.T) {
	s := NewProgressSnapshot(0, 10, 0)
	if s.EstimatedTimeRemaining != EstimateUnknown {
		t.Errorf("expected unknown estimate, got %v", s.EstimatedTimeRemaining)
	}
	if s.ProgressPercent != 0 {
		t.Errorf("expected 0%%, got %v", s.ProgressPercent)
	}
}
