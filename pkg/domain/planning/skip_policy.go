package planning

// AdjustmentReasonSkips is the reason passed to Adjust when the skip
// threshold is crossed.
const AdjustmentReasonSkips = "3+ consecutive skipped tasks"

// DefaultSkipThreshold is the number of contiguous skips that triggers an adjustment.
const DefaultSkipThreshold = 3

// SkipPolicy decides when a run of skipped tasks warrants re-planning.
type SkipPolicy struct {
	Threshold int
}

// DefaultSkipPolicy returns the three-skip policy.
func DefaultSkipPolicy() SkipPolicy {
	return SkipPolicy{Threshold: DefaultSkipThreshold}
}

// ShouldTriggerAdjustment reports whether the most recent events, ordered
// newest first, start with at least Threshold SKIPPED tasks.
func (p SkipPolicy) ShouldTriggerAdjustment(recent []Task) bool {
	threshold := p.Threshold
	if threshold <= 0 {
		threshold = DefaultSkipThreshold
	}
	return LeadingSkips(recent) >= threshold
}

// LeadingSkips counts the contiguous SKIPPED tasks at the head of recent.
func LeadingSkips(recent []Task) int {
	n := 0
	for _, t := range recent {
		if t.Status != StatusSkipped {
			break
		}
		n++
	}
	return n
}
