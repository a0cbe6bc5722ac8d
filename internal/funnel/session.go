package funnel

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"trialfunnel/pkg"
)

// State identifies where a session is in the narrowing dialogue.
type State int

const (
	AwaitingCondition State = iota
	AwaitingAnswer
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingCondition:
		return "awaiting_condition"
	case AwaitingAnswer:
		return "awaiting_answer"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ConditionStatus tracks the condition lifecycle: unset until the user is
// asked for it, pending while the next message is awaited for extraction,
// then set.
type ConditionStatus int

const (
	ConditionUnset ConditionStatus = iota
	ConditionPending
	ConditionSet
)

// DefaultTerminalThreshold is the candidate count at or below which the
// funnel stops asking questions and presents the remaining trials.
const DefaultTerminalThreshold = 10

// StepResult is the outcome of one narrowing step: either the next question
// to put to the user, or the final trial list when the session terminated.
type StepResult struct {
	NextQuestion string
	Done         bool
	Trials       []string
}

// Session drives one narrowing conversation.  It owns the shrinking
// candidate set, the asked-question history, and the conversation log.
// A session is mutated by one request at a time; the catalog and index it
// references are shared, immutable reference data.
type Session struct {
	catalog *Catalog
	index   *Index
	log     *zap.Logger

	state        State
	condStatus   ConditionStatus
	condition    string
	candidates   []string
	restricted   *Index // index limited to current candidates
	asked        []string
	lastQuestion string
	history      []pkg.Turn
	threshold    int
}

// NewSession creates a session over shared reference data.  A threshold of
// zero or less selects DefaultTerminalThreshold.
func NewSession(catalog *Catalog, index *Index, threshold int, log *zap.Logger) *Session {
	if threshold <= 0 {
		threshold = DefaultTerminalThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		catalog:   catalog,
		index:     index,
		log:       log,
		threshold: threshold,
	}
}

// State returns the session's current state.
func (s *Session) State() State { return s.state }

// Condition returns the patient's stated condition and its status.
func (s *Session) Condition() (string, ConditionStatus) {
	return s.condition, s.condStatus
}

// MarkConditionPending records that the user has been asked for their
// condition, so the next message goes through extraction.
func (s *Session) MarkConditionPending() {
	if s.condStatus == ConditionUnset {
		s.condStatus = ConditionPending
	}
}

// Candidates returns a copy of the current candidate trial ids.  Repeated
// calls without an intervening answer return identical sets.
func (s *Session) Candidates() []string {
	out := make([]string, len(s.candidates))
	copy(out, s.candidates)
	return out
}

// AskedQuestions returns the questions posed so far, in order.
func (s *Session) AskedQuestions() []string {
	out := make([]string, len(s.asked))
	copy(out, s.asked)
	return out
}

// LastQuestion returns the most recently asked question, empty before the
// first selection.
func (s *Session) LastQuestion() string { return s.lastQuestion }

// History returns the conversation log.
func (s *Session) History() []pkg.Turn {
	out := make([]pkg.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// AppendTurn records one conversational turn.
func (s *Session) AppendTurn(role pkg.MessageRole, content string) {
	s.history = append(s.history, pkg.Turn{Role: role, Content: content, At: time.Now()})
}

// SetCondition filters the catalog to trials matching the stated condition,
// restricts the eligibility index to them, and selects the first question.
// A filter with no matches is not an error: the session terminates with an
// empty list.  On error the session state is unchanged.
func (s *Session) SetCondition(condition string) (StepResult, error) {
	switch s.state {
	case Terminated:
		return StepResult{}, ErrSessionTerminated
	case AwaitingAnswer:
		return StepResult{}, ErrConditionAlreadySet
	}

	ids := s.catalog.FilterByCondition(condition)
	s.condition = condition
	s.condStatus = ConditionSet
	s.candidates = ids
	s.restricted = s.index.Restrict(ids)
	s.state = AwaitingAnswer
	s.AppendTurn(pkg.RolePatient, condition)
	s.log.Info("condition set",
		zap.String("condition", condition),
		zap.Int("candidates", len(ids)))
	return s.advance()
}

// SubmitAnswer evaluates the answer against every candidate trial's
// relation for the last asked question, keeps the survivors, and either
// terminates or selects the next question.  Wrong-state calls leave the
// session untouched.
func (s *Session) SubmitAnswer(answer string) (StepResult, error) {
	switch s.state {
	case AwaitingCondition:
		return StepResult{}, ErrNoCondition
	case Terminated:
		return StepResult{}, ErrSessionTerminated
	}

	survivors := s.filterOnAnswer(s.lastQuestion, answer)
	var remaining []string
	for _, id := range s.candidates {
		if _, ok := survivors[id]; ok {
			remaining = append(remaining, id)
		}
	}
	s.candidates = remaining
	s.restricted = s.index.Restrict(remaining)
	s.AppendTurn(pkg.RolePatient, answer)
	s.log.Info("candidates narrowed",
		zap.String("question", s.lastQuestion),
		zap.Int("remaining", len(remaining)))
	return s.advance()
}

// advance checks the termination predicate and otherwise selects the next
// question, recording it as asked at selection time.
func (s *Session) advance() (StepResult, error) {
	if len(s.candidates) <= s.threshold {
		s.state = Terminated
		s.AppendTurn(pkg.RoleBot, "final candidate list")
		return StepResult{Done: true, Trials: s.Candidates()}, nil
	}
	q, err := NextQuestion(s.candidates, s.restricted, s.asked)
	if errors.Is(err, ErrNoQuestionsRemaining) {
		s.state = Terminated
		s.AppendTurn(pkg.RoleBot, "final candidate list")
		return StepResult{Done: true, Trials: s.Candidates()}, nil
	}
	if err != nil {
		return StepResult{}, err
	}
	s.asked = append(s.asked, q)
	s.lastQuestion = q
	s.AppendTurn(pkg.RoleBot, q)
	return StepResult{NextQuestion: q}, nil
}

// filterOnAnswer returns the ids of candidate trials whose relation for the
// question accepts the answer.  A relation that cannot be evaluated keeps
// its trial: the reference data is known to be dirty in places, and
// eliminating on a broken relation would drop real matches.  Trials with no
// relation for the question are eliminated.
func (s *Session) filterOnAnswer(question, answer string) map[string]struct{} {
	matched := make(map[string]struct{})
	for _, tr := range s.restricted.RelationsFor(question) {
		ok, err := Evaluate(tr.Relation, answer)
		if err != nil {
			s.log.Warn("criterion evaluation failed, keeping trial",
				zap.String("trial", tr.TrialID),
				zap.String("question", question),
				zap.Error(err))
			ok = true
		}
		if ok {
			matched[tr.TrialID] = struct{}{}
		}
	}
	return matched
}
