package bot

import "ledgercat/internal/core"

// resolveDeletions maps the 1-based display indices a user typed onto
// absolute store positions, against a fresh snapshot of the current view.
// Duplicates collapse; indices outside [1, N] are silently dropped.
// Targets come back in descending position order — deleting by absolute
// position shifts every later row, so ascending execution would invalidate
// the remaining targets. resolved lists the surviving display indices in
// ascending order for the reply.
func resolveDeletions(v core.MonthlyView, indices []int) (targets []core.Row, resolved []int) {
	seen := make(map[int]bool, len(indices))
	for _, i := range indices {
		if i < 1 || i > len(v.Entries) || seen[i] {
			continue
		}
		seen[i] = true
		resolved = append(resolved, i)
	}

	// Ascending display index for the reply.
	for i := 0; i < len(resolved); i++ {
		for j := i + 1; j < len(resolved); j++ {
			if resolved[j] < resolved[i] {
				resolved[i], resolved[j] = resolved[j], resolved[i]
			}
		}
	}

	// Descending absolute position for execution. Display order follows
	// store order, so walking the resolved indices backwards is enough.
	for i := len(resolved) - 1; i >= 0; i-- {
		targets = append(targets, v.Entries[resolved[i]-1].Row)
	}
	return targets, resolved
}

// allDeletionTargets selects every non-budget row of the view, in
// descending position order. Budget rows are never deletion targets.
func allDeletionTargets(v core.MonthlyView) []core.Row {
	targets := make([]core.Row, 0, len(v.Entries))
	for i := len(v.Entries) - 1; i >= 0; i-- {
		targets = append(targets, v.Entries[i].Row)
	}
	return targets
}
