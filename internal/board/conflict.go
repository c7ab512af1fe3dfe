package board

import (
	"github.com/ukydev/garage-workboard/internal/models"
)

// conflictCounts returns true when a job's tool claims count toward
// double-booking: completed and paused jobs are out of contention.
func conflictCounts(j *models.Job) bool {
	return j.Status != models.StatusCompleted && j.Status != models.StatusPaused
}

// RecomputeConflicts rebuilds the per-slot tool double-booking flags for
// every job on the board. A tool claimed by more than one active job in
// the same slot flags all of those jobs. The flag is advisory; nothing
// prevents the double-booking at assignment time. Returns true when any
// job's flag changed.
func (b *Board) RecomputeConflicts() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	changed := false
	for _, slotID := range b.slotIDs {
		holders := make(map[string][]*models.Job)
		for _, j := range b.jobs[slotID] {
			if !conflictCounts(j) {
				continue
			}
			for _, ta := range j.Tools {
				holders[ta.ToolID] = append(holders[ta.ToolID], j)
			}
		}

		conflicted := make(map[string]bool)
		for _, js := range holders {
			if len(js) > 1 {
				for _, j := range js {
					conflicted[j.ID] = true
				}
			}
		}

		for _, j := range b.jobs[slotID] {
			want := conflicted[j.ID]
			if j.ToolsConflict != want {
				j.ToolsConflict = want
				changed = true
			}
		}
	}
	return changed
}

// SlotConflicts maps each contested tool id in a slot to the active jobs
// claiming it.
func (b *Board) SlotConflicts(slotID string) map[string][]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	holders := make(map[string][]string)
	for _, j := range b.jobs[slotID] {
		if !conflictCounts(j) {
			continue
		}
		for _, ta := range j.Tools {
			holders[ta.ToolID] = append(holders[ta.ToolID], j.ID)
		}
	}
	for tool, js := range holders {
		if len(js) < 2 {
			delete(holders, tool)
		}
	}
	return holders
}

// ToolAvailable reports whether a tool is free in a slot, ignoring the
// given job's own claim. It is false iff at least one other active job
// in the slot holds the tool.
func (b *Board) ToolAvailable(toolID, slotID, excludeJobID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, j := range b.jobs[slotID] {
		if j.ID == excludeJobID || !conflictCounts(j) {
			continue
		}
		for _, ta := range j.Tools {
			if ta.ToolID == toolID {
				return false
			}
		}
	}
	return true
}
