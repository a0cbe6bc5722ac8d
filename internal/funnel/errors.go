package funnel

import "errors"

var (
	// ErrAnswerParse means the answer text is not a valid number for a
	// numerical criterion.
	ErrAnswerParse = errors.New("answer is not a valid number")

	// ErrUnknownCriterionType means the reference data carries a
	// variable_type outside the two known kinds.
	ErrUnknownCriterionType = errors.New("unknown criterion variable type")

	// ErrMalformedRelation means a relation payload could not be decoded.
	ErrMalformedRelation = errors.New("malformed relation payload")

	// ErrNoQuestionsRemaining signals that the candidate set has no unasked
	// questions left.  It is a normal termination signal: callers present
	// the current candidates instead of failing.
	ErrNoQuestionsRemaining = errors.New("no unasked questions remain")

	// ErrSessionTerminated is returned for calls against a finished session.
	ErrSessionTerminated = errors.New("session already terminated")

	// ErrNoCondition is returned when an answer arrives before a condition.
	ErrNoCondition = errors.New("condition not set")

	// ErrConditionAlreadySet is returned when a condition arrives twice.
	ErrConditionAlreadySet = errors.New("condition already set")
)
