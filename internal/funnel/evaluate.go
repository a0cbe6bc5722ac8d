package funnel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"trialfunnel/pkg"
)

// Evaluate reports whether a raw answer satisfies an eligibility relation.
// It returns an error when the relation cannot be applied at all (unknown
// variable type, undecodable payload, non-numeric answer to a numerical
// criterion); the caller decides what a failed evaluation means for the
// trial in question.
func Evaluate(rel pkg.EligibilityRelation, answer string) (bool, error) {
	switch rel.VariableType {
	case pkg.VariableNumerical:
		return evaluateNumerical(rel.Payload, answer)
	case pkg.VariableOrdinal:
		return evaluateOrdinal(rel.Payload, answer)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownCriterionType, rel.VariableType)
	}
}

func evaluateNumerical(payload json.RawMessage, answer string) (bool, error) {
	var c pkg.NumericalConstraint
	if err := json.Unmarshal(payload, &c); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedRelation, err)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrAnswerParse, answer)
	}
	if lo := c.Lower; lo != nil {
		if lo.Inclusive() {
			if v < float64(lo.Value) {
				return false, nil
			}
		} else if v <= float64(lo.Value) {
			return false, nil
		}
	}
	if hi := c.Upper; hi != nil {
		if hi.Inclusive() {
			if v > float64(hi.Value) {
				return false, nil
			}
		} else if v >= float64(hi.Value) {
			return false, nil
		}
	}
	return true, nil
}

func evaluateOrdinal(payload json.RawMessage, answer string) (bool, error) {
	var c pkg.OrdinalConstraint
	if err := json.Unmarshal(payload, &c); err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedRelation, err)
	}
	for _, v := range c.Values {
		if v == answer {
			return true, nil
		}
	}
	return false, nil
}
