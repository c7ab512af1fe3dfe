package models

import (
	"testing"
)

func TestParseEstimate(t *testing.T) {
	cases := map[string]int{
		"2h":    120,
		"90m":   90,
		"1h30m": 90,
		"150":   150,
		"2.5h":  150,
	}
	for in, want := range cases {
		got, err := ParseEstimate(in)
		if err != nil {
			t.Fatalf("ParseEstimate(%q) failed: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseEstimate(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseEstimateRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "soon", "-2h", "-30"} {
		if _, err := ParseEstimate(in); err == nil {
			t.Errorf("ParseEstimate(%q) should fail", in)
		}
	}
}

func TestPriorityNormalization(t *testing.T) {
	if PriorityUrgent.Normalized() != PriorityHigh {
		t.Error("urgent should collapse into high")
	}
	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Error("high must rank before medium")
	}
	if PriorityMedium.Rank() >= PriorityLow.Rank() {
		t.Error("medium must rank before low")
	}
}
