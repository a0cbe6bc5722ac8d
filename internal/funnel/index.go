package funnel

import (
	"sort"

	"trialfunnel/pkg"
)

// TrialRelation pairs a trial id with its eligibility relation for one
// question.
type TrialRelation struct {
	TrialID  string
	Relation pkg.EligibilityRelation
}

// Index maps each question to the trials constrained by it.  Like the
// catalog it is built once from reference data and never mutated;
// restriction to a candidate set produces a new index.
type Index struct {
	byQuestion map[string][]TrialRelation
	questions  []string // sorted ascending for deterministic iteration
}

// NewIndex builds an index from loaded eligibility rows.
func NewIndex(rows []pkg.EligibilityRow) *Index {
	ix := &Index{byQuestion: make(map[string][]TrialRelation)}
	for _, row := range rows {
		if _, ok := ix.byQuestion[row.Question]; !ok {
			ix.questions = append(ix.questions, row.Question)
		}
		ix.byQuestion[row.Question] = append(ix.byQuestion[row.Question], TrialRelation{
			TrialID:  row.TrialID,
			Relation: row.Relation,
		})
	}
	sort.Strings(ix.questions)
	return ix
}

// RelationsFor returns the (trial, relation) pairs recorded for a question.
// The returned slice is shared and must not be modified.
func (ix *Index) RelationsFor(question string) []TrialRelation {
	return ix.byQuestion[question]
}

// Questions returns all question texts in the index, sorted ascending.
func (ix *Index) Questions() []string { return ix.questions }

// Restrict returns a new index containing only relations whose trial id is
// in ids.  Questions left with no relations are dropped.  The receiver is
// left untouched.
func (ix *Index) Restrict(ids []string) *Index {
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := &Index{byQuestion: make(map[string][]TrialRelation)}
	for _, q := range ix.questions {
		var rels []TrialRelation
		for _, tr := range ix.byQuestion[q] {
			if _, ok := keep[tr.TrialID]; ok {
				rels = append(rels, tr)
			}
		}
		if len(rels) > 0 {
			out.byQuestion[q] = rels
			out.questions = append(out.questions, q)
		}
	}
	return out
}
