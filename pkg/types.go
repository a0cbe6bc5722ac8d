package pkg

import (
    "encoding/json"
    "strconv"
    "strings"
    "time"
)

// Trial is one clinical-trial record.  Trials are loaded once at process
// start and are immutable afterwards; other components refer to a trial by
// its registry id rather than holding a copy.
type Trial struct {
    ID         string            `json:"nct_id"`
    Conditions string            `json:"conditions"`
    Fields     map[string]string `json:"fields,omitempty"`
}

// VariableType identifies the kind of constraint an eligibility relation
// carries.  Anything outside the two known kinds is a data error.
type VariableType string

const (
    VariableNumerical VariableType = "numerical"
    VariableOrdinal   VariableType = "ordinal"
)

// BoundValue is a float64 that also accepts numeric strings when decoding.
// The upstream eligibility data mixes both encodings for the same field.
type BoundValue float64

func (v *BoundValue) UnmarshalJSON(data []byte) error {
    if len(data) > 0 && data[0] == '"' {
        var raw string
        if err := json.Unmarshal(data, &raw); err != nil {
            return err
        }
        f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
        if err != nil {
            return err
        }
        *v = BoundValue(f)
        return nil
    }
    var f float64
    if err := json.Unmarshal(data, &f); err != nil {
        return err
    }
    *v = BoundValue(f)
    return nil
}

// Bound is one side of a numerical eligibility range.  A missing incl flag
// means the bound is inclusive.
type Bound struct {
    Value BoundValue `json:"value"`
    Incl  *bool      `json:"incl,omitempty"`
}

// Inclusive reports whether the bound includes its own value.
func (b Bound) Inclusive() bool { return b.Incl == nil || *b.Incl }

// NumericalConstraint is the payload shape for numerical relations.  Either
// bound may be absent, meaning unbounded on that side.
type NumericalConstraint struct {
    Lower *Bound `json:"lower,omitempty"`
    Upper *Bound `json:"upper,omitempty"`
}

// OrdinalConstraint is the payload shape for ordinal relations: a set of
// acceptable answer strings, matched exactly and case-sensitively.
type OrdinalConstraint struct {
    Values []string `json:"value"`
}

// EligibilityRelation is the structured constraint attached to one
// (trial, question) pair.  The payload stays in its serialized form and is
// decoded at evaluation time, so malformed reference data surfaces as an
// evaluation error for that trial alone instead of failing the whole load.
type EligibilityRelation struct {
    VariableType VariableType    `json:"variable_type"`
    Payload      json.RawMessage `json:"relation"`
}

// EligibilityRow is one reference-data record as loaded from storage.
type EligibilityRow struct {
    TrialID  string              `json:"nct_id"`
    Question string              `json:"question"`
    Relation EligibilityRelation `json:"relation"`
}

// MessageRole describes who authored a turn in the conversation log.
type MessageRole string

const (
    RolePatient MessageRole = "patient"
    RoleBot     MessageRole = "bot"
)

// Turn is one entry in a session's conversational history.
type Turn struct {
    Role    MessageRole `json:"role"`
    Content string      `json:"content"`
    At      time.Time   `json:"at"`
}

// MessageRequest is the body of a patient message posted to a session.
type MessageRequest struct {
    Message string `json:"message"`
}

// MessageResponse carries the bot's reply for one turn.
type MessageResponse struct {
    Message string `json:"message"`
}

// SessionResponse is returned when a session is created or reset.
type SessionResponse struct {
    SessionID string `json:"session_id"`
}

// TrialsResponse lists the trial ids still matching a session.
type TrialsResponse struct {
    Trials []string `json:"trials"`
}
