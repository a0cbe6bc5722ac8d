package funnel

// NextQuestion picks the unasked question that constrains the greatest
// number of distinct candidate trials, so each turn splits the remaining
// pool as aggressively as possible.  Ties break toward the
// lexicographically smallest question text, which keeps selection
// deterministic across runs.  ErrNoQuestionsRemaining is returned when no
// unasked question covers any candidate.
func NextQuestion(candidates []string, ix *Index, asked []string) (string, error) {
	candidateSet := make(map[string]struct{}, len(candidates))
	for _, id := range candidates {
		candidateSet[id] = struct{}{}
	}
	askedSet := make(map[string]struct{}, len(asked))
	for _, q := range asked {
		askedSet[q] = struct{}{}
	}

	best := ""
	bestCount := 0
	// Questions() is sorted ascending and the comparison is strict, so the
	// first question seen at a given count wins the tie.
	for _, q := range ix.Questions() {
		if _, ok := askedSet[q]; ok {
			continue
		}
		covered := make(map[string]struct{})
		for _, tr := range ix.RelationsFor(q) {
			if _, ok := candidateSet[tr.TrialID]; ok {
				covered[tr.TrialID] = struct{}{}
			}
		}
		if len(covered) > bestCount {
			best = q
			bestCount = len(covered)
		}
	}
	if bestCount == 0 {
		return "", ErrNoQuestionsRemaining
	}
	return best, nil
}
