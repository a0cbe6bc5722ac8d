package core

import (
    "encoding/json"
    "fmt"
    "strings"
)

// ActionKind enumerates the agent's dispatchable actions.  The set is
// closed: routing produces exactly one of these, each dispatched by a
// switch in Agent.run, rather than a name-keyed tool table.
type ActionKind int

const (
    // ActionAskForCondition opens the dialogue by asking for the condition.
    ActionAskForCondition ActionKind = iota
    // ActionExtractCondition derives the condition from the user's reply
    // and starts the funnel.
    ActionExtractCondition
    // ActionAnswerQuestion feeds the message to the funnel as an answer to
    // the last asked question.
    ActionAnswerQuestion
    // ActionRespond replies conversationally without touching the funnel.
    ActionRespond
)

func (k ActionKind) String() string {
    switch k {
    case ActionAskForCondition:
        return "AskForCondition"
    case ActionExtractCondition:
        return "ExtractCondition"
    case ActionAnswerQuestion:
        return "AnswerQuestion"
    case ActionRespond:
        return "Respond"
    default:
        return "Unknown"
    }
}

// Action is one routed agent step with its payload.
type Action struct {
    Kind  ActionKind
    Input string
}

// parseAction decodes the router's JSON decision into a typed Action.
// Unknown action names are an error, surfaced without touching session
// state so the turn can be retried.
func parseAction(raw string) (Action, error) {
    var decision struct {
        Action string `json:"action"`
        Input  string `json:"input"`
    }
    if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &decision); err != nil {
        return Action{}, fmt.Errorf("malformed router decision: %w", err)
    }
    switch decision.Action {
    case "AnswerQuestion":
        return Action{Kind: ActionAnswerQuestion, Input: decision.Input}, nil
    case "Respond":
        return Action{Kind: ActionRespond, Input: decision.Input}, nil
    default:
        return Action{}, fmt.Errorf("unknown action %q", decision.Action)
    }
}
