package sources

import (
	"context"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ukydev/garage-workboard/internal/models"
)

// Aggregator merges the three upstream feeds into one deduplicated,
// ranked waiting queue. A feed that fails contributes zero candidates;
// aggregation never fails as a whole.
type Aggregator struct {
	attention AttentionFeed
	waiting   WaitingListFeed
	inventory InventoryFeed
	now       func() time.Time
}

func NewAggregator(attention AttentionFeed, waiting WaitingListFeed, inventory InventoryFeed) *Aggregator {
	return &Aggregator{
		attention: attention,
		waiting:   waiting,
		inventory: inventory,
		now:       time.Now,
	}
}

// Aggregate returns the ranked waiting queue. Vehicle codes present in
// scheduled are excluded outright from every source before the merge.
// Duplicates across sources are resolved first-seen-wins in the fixed
// source order: attention, waiting list, inventory.
func (a *Aggregator) Aggregate(ctx context.Context, scheduled map[string]bool) []models.WaitingCandidate {
	now := a.now()
	var merged []models.WaitingCandidate
	seen := make(map[string]bool)

	add := func(c models.WaitingCandidate) {
		if c.VehicleCode == "" || scheduled[c.VehicleCode] || seen[c.VehicleCode] {
			return
		}
		seen[c.VehicleCode] = true
		merged = append(merged, c)
	}

	if a.attention != nil {
		recs, err := a.attention.ListAttention(ctx)
		if err != nil {
			log.WithError(err).WithField("source", sourceAttention).Warn("Source unavailable; contributing zero candidates")
		} else {
			for _, r := range recs {
				add(normalizeAttention(r, now))
			}
		}
	}

	if a.waiting != nil {
		recs, err := a.waiting.ListWaiting(ctx)
		if err != nil {
			log.WithError(err).WithField("source", sourceWaiting).Warn("Source unavailable; contributing zero candidates")
		} else {
			for _, r := range recs {
				add(normalizeWaiting(r, now))
			}
		}
	}

	if a.inventory != nil {
		recs, err := a.inventory.ListInventory(ctx)
		if err != nil {
			log.WithError(err).WithField("source", sourceInventory).Warn("Source unavailable; contributing zero candidates")
		} else {
			for _, r := range recs {
				if r.Assigned {
					continue
				}
				add(normalizeInventory(r, now))
			}
		}
	}

	// Stable sort: priority first, then longest-waiting, ties keep
	// input order so the queue is deterministic.
	sort.SliceStable(merged, func(i, k int) bool {
		pi, pk := merged[i].Priority.Rank(), merged[k].Priority.Rank()
		if pi != pk {
			return pi < pk
		}
		return merged[i].DaysWaiting > merged[k].DaysWaiting
	})
	return merged
}
