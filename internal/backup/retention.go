package backup

import (
	"slices"
	"time"
)

// Entry describes one existing backup as seen by the retention policy.
type Entry struct {
	ID         string
	SourcePath string
	CreatedAt  time.Time
}

// Prune returns the ids of the backups the policy would remove at time now.
// Backups are grouped by source path; within a group the newest are kept.
func (p *Policy) Prune(entries []Entry, now time.Time) []string {
	groups := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		if _, ok := groups[e.SourcePath]; !ok {
			order = append(order, e.SourcePath)
		}
		groups[e.SourcePath] = append(groups[e.SourcePath], e)
	}

	var toDelete []string
	for _, source := range order {
		group := groups[source]
		// Newest first
		slices.SortStableFunc(group, func(a, b Entry) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})

		var doomed []string
		for idx, e := range group {
			shouldDelete := false

			if p.MaxAge > 0 && now.Sub(e.CreatedAt) > p.MaxAge {
				shouldDelete = true
			}
			if p.MaxBackups > 0 && idx >= p.MaxBackups {
				shouldDelete = true
			}

			if shouldDelete {
				doomed = append(doomed, e.ID)
			}
		}

		// If everything in the group would go, keep the newest
		if p.KeepAtLeastOne && len(doomed) == len(group) && len(doomed) > 0 {
			doomed = doomed[1:]
		}
		toDelete = append(toDelete, doomed...)
	}

	return toDelete
}
