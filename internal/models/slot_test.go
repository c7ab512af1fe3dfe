package models

import (
	"testing"
	"time"
)

func TestSlotHoursWeekday(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wed := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	hours := SlotHoursFor(wed)
	if len(hours) != 8 {
		t.Fatalf("weekday should have 8 slots, got %d", len(hours))
	}
	if hours[0] != 9 || hours[len(hours)-1] != 16 {
		t.Errorf("weekday slots should span 09:00-16:00, got %v", hours)
	}
}

func TestSlotHoursWeekend(t *testing.T) {
	sat := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	if got := len(SlotHoursFor(sat)); got != 3 {
		t.Errorf("saturday should have 3 slots, got %d", got)
	}
	sun := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if got := len(SlotHoursFor(sun)); got != 0 {
		t.Errorf("sunday should be closed, got %d slots", got)
	}
}

func TestSlotID(t *testing.T) {
	if SlotID(9) != "09:00" {
		t.Errorf("SlotID(9) = %q", SlotID(9))
	}
	if SlotID(14) != "14:00" {
		t.Errorf("SlotID(14) = %q", SlotID(14))
	}
}
