package funnel

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialfunnel/pkg"
)

func numericalRelation(payload string) pkg.EligibilityRelation {
	return pkg.EligibilityRelation{
		VariableType: pkg.VariableNumerical,
		Payload:      json.RawMessage(payload),
	}
}

func ordinalRelation(payload string) pkg.EligibilityRelation {
	return pkg.EligibilityRelation{
		VariableType: pkg.VariableOrdinal,
		Payload:      json.RawMessage(payload),
	}
}

func TestEvaluateNumericalBounds(t *testing.T) {
	// 18 inclusive to 65 exclusive
	rel := numericalRelation(`{"lower": {"value": 18, "incl": true}, "upper": {"value": 65, "incl": false}}`)

	cases := []struct {
		answer string
		want   bool
	}{
		{"18", true},
		{"64.9", true},
		{"17.9", false},
		{"65", false},
		{"40", true},
	}
	for _, tc := range cases {
		got, err := Evaluate(rel, tc.answer)
		require.NoError(t, err, "answer %q", tc.answer)
		assert.Equal(t, tc.want, got, "answer %q", tc.answer)
	}
}

func TestEvaluateNumericalExclusiveLower(t *testing.T) {
	rel := numericalRelation(`{"lower": {"value": 18, "incl": false}}`)

	got, err := Evaluate(rel, "18")
	require.NoError(t, err)
	assert.False(t, got)

	got, err = Evaluate(rel, "18.1")
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluateNumericalMissingBoundsUnbounded(t *testing.T) {
	rel := numericalRelation(`{}`)
	for _, answer := range []string{"-1000000", "0", "1000000"} {
		got, err := Evaluate(rel, answer)
		require.NoError(t, err)
		assert.True(t, got, "answer %q", answer)
	}
}

func TestEvaluateNumericalStringBoundValue(t *testing.T) {
	// Upstream data sometimes encodes bound values as strings.
	rel := numericalRelation(`{"lower": {"value": "18"}}`)

	got, err := Evaluate(rel, "20")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Evaluate(rel, "17")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateNumericalUnparseableAnswer(t *testing.T) {
	rel := numericalRelation(`{"lower": {"value": 18}}`)
	_, err := Evaluate(rel, "eighteen")
	assert.ErrorIs(t, err, ErrAnswerParse)
}

func TestEvaluateOrdinal(t *testing.T) {
	rel := ordinalRelation(`{"value": ["Male", "Female"]}`)

	got, err := Evaluate(rel, "Male")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = Evaluate(rel, "Non-binary")
	require.NoError(t, err)
	assert.False(t, got)

	// membership is case-sensitive as stored
	got, err = Evaluate(rel, "male")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluateUnknownVariableType(t *testing.T) {
	rel := pkg.EligibilityRelation{
		VariableType: "categorical",
		Payload:      json.RawMessage(`{}`),
	}
	_, err := Evaluate(rel, "anything")
	assert.ErrorIs(t, err, ErrUnknownCriterionType)
}

func TestEvaluateMalformedPayload(t *testing.T) {
	_, err := Evaluate(numericalRelation(`{"lower": `), "18")
	assert.ErrorIs(t, err, ErrMalformedRelation)

	_, err = Evaluate(ordinalRelation(`not json`), "Male")
	assert.ErrorIs(t, err, ErrMalformedRelation)
}
