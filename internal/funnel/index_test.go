package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialfunnel/pkg"
)

func eligibilityRow(trialID, question string, rel pkg.EligibilityRelation) pkg.EligibilityRow {
	return pkg.EligibilityRow{TrialID: trialID, Question: question, Relation: rel}
}

func TestIndexRelationsFor(t *testing.T) {
	ix := NewIndex([]pkg.EligibilityRow{
		eligibilityRow("T1", "Age?", numericalRelation(`{}`)),
		eligibilityRow("T2", "Age?", numericalRelation(`{}`)),
		eligibilityRow("T1", "Sex?", ordinalRelation(`{"value": ["Male"]}`)),
	})

	rels := ix.RelationsFor("Age?")
	require.Len(t, rels, 2)
	assert.Equal(t, "T1", rels[0].TrialID)
	assert.Equal(t, "T2", rels[1].TrialID)
	assert.Nil(t, ix.RelationsFor("Stage?"))
	assert.Equal(t, []string{"Age?", "Sex?"}, ix.Questions())
}

func TestIndexRestrict(t *testing.T) {
	ix := NewIndex([]pkg.EligibilityRow{
		eligibilityRow("T1", "Age?", numericalRelation(`{}`)),
		eligibilityRow("T2", "Age?", numericalRelation(`{}`)),
		eligibilityRow("T2", "Sex?", ordinalRelation(`{"value": ["Male"]}`)),
	})

	restricted := ix.Restrict([]string{"T1"})
	require.Len(t, restricted.RelationsFor("Age?"), 1)
	assert.Equal(t, "T1", restricted.RelationsFor("Age?")[0].TrialID)
	// questions that no longer cover any trial disappear
	assert.Equal(t, []string{"Age?"}, restricted.Questions())

	// the source index is untouched
	assert.Len(t, ix.RelationsFor("Age?"), 2)
	assert.Len(t, ix.RelationsFor("Sex?"), 1)
}
