package models

import (
	"fmt"
	"time"
)

// TimeSlot is an hour-labeled bucket holding an ordered list of jobs.
// The day's slot set is fixed before scheduling begins and never grows
// or shrinks at runtime.
type TimeSlot struct {
	ID   string `json:"id" bson:"id"` // "09:00"
	Hour int    `json:"hour" bson:"hour"`
	Jobs []Job  `json:"jobs" bson:"jobs"`
}

// BoardSnapshot is the persisted view of one day's schedule, keyed by date.
type BoardSnapshot struct {
	Date    string     `json:"date" bson:"date"` // "2006-01-02"
	Slots   []TimeSlot `json:"slots" bson:"slots"`
	SavedAt time.Time  `json:"saved_at" bson:"saved_at"`
}

const (
	weekdayOpenHour  = 9
	weekdayCloseHour = 17
	saturdayClose    = 12
)

// SlotHoursFor returns the opening hours of the garage for a date:
// full weekdays, a shortened Saturday morning, closed on Sunday.
func SlotHoursFor(date time.Time) []int {
	var open, close int
	switch date.Weekday() {
	case time.Sunday:
		return nil
	case time.Saturday:
		open, close = weekdayOpenHour, saturdayClose
	default:
		open, close = weekdayOpenHour, weekdayCloseHour
	}
	hours := make([]int, 0, close-open)
	for h := open; h < close; h++ {
		hours = append(hours, h)
	}
	return hours
}

// SlotID formats an hour as the slot label used across the board.
func SlotID(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
