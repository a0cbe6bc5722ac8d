package core

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "trialfunnel/internal/funnel"
    "trialfunnel/internal/llm"
    "trialfunnel/pkg"
)

// stubLLM answers each prompt via fn and records how often it was called.
type stubLLM struct {
    fn    func(prompt string) (string, error)
    calls int
}

func (s *stubLLM) Chat(_ context.Context, messages []llm.Message) (string, error) {
    s.calls++
    return s.fn(messages[len(messages)-1].Content)
}

// scriptedLLM routes prompts by the instruction they contain.
func scriptedLLM(t *testing.T, condition, routerDecision string) *stubLLM {
    return &stubLLM{fn: func(prompt string) (string, error) {
        switch {
        case strings.Contains(prompt, "Extract and derive"):
            return condition, nil
        case strings.Contains(prompt, "Ask a user with"):
            return "Phrased: " + prompt, nil
        case strings.Contains(prompt, "most appropriate action"):
            return routerDecision, nil
        default:
            t.Fatalf("unexpected prompt: %s", prompt)
            return "", nil
        }
    }}
}

func testFixture() (*funnel.Catalog, *funnel.Index) {
    var trials []pkg.Trial
    var rows []pkg.EligibilityRow
    for i := 1; i <= 12; i++ {
        id := fmt.Sprintf("NCT%03d", i)
        trials = append(trials, pkg.Trial{ID: id, Conditions: "lung cancer"})
        payload := `{"lower": {"value": 18}}`
        if i > 10 {
            payload = `{"lower": {"value": 18}, "upper": {"value": 45}}`
        }
        rows = append(rows, pkg.EligibilityRow{
            TrialID:  id,
            Question: "Age?",
            Relation: pkg.EligibilityRelation{VariableType: pkg.VariableNumerical, Payload: json.RawMessage(payload)},
        })
    }
    return funnel.NewCatalog(trials), funnel.NewIndex(rows)
}

func newTestAgent(client llm.Client) *Agent {
    catalog, ix := testFixture()
    return NewAgent(client, funnel.NewSession(catalog, ix, 10, nil), nil)
}

func TestAgentAsksForConditionFirst(t *testing.T) {
    client := &stubLLM{fn: func(string) (string, error) {
        return "", errors.New("LLM must not be called on the opening turn")
    }}
    agent := newTestAgent(client)

    reply, err := agent.Run(context.Background(), "hi there")
    require.NoError(t, err)
    assert.Equal(t, ConditionPrompt, reply)
    assert.Zero(t, client.calls)

    _, status := agent.Session().Condition()
    assert.Equal(t, funnel.ConditionPending, status)
}

func TestAgentExtractsConditionAndAsksFirstQuestion(t *testing.T) {
    client := scriptedLLM(t, "lung cancer", "")
    agent := newTestAgent(client)

    _, err := agent.Run(context.Background(), "hi")
    require.NoError(t, err)

    reply, err := agent.Run(context.Background(), "I think I have lung cancer")
    require.NoError(t, err)
    assert.Contains(t, reply, "Age?")

    condition, status := agent.Session().Condition()
    assert.Equal(t, "lung cancer", condition)
    assert.Equal(t, funnel.ConditionSet, status)
    assert.Equal(t, []string{"Age?"}, agent.Session().AskedQuestions())
    assert.Len(t, agent.Session().Candidates(), 12)
}

func TestAgentAnswerNarrowsToFinalList(t *testing.T) {
    client := scriptedLLM(t, "lung cancer", `{"action": "AnswerQuestion", "input": "50"}`)
    agent := newTestAgent(client)

    _, err := agent.Run(context.Background(), "hi")
    require.NoError(t, err)
    _, err = agent.Run(context.Background(), "lung cancer")
    require.NoError(t, err)

    // 50 is over the age cap of the last two trials: 10 remain, terminate
    reply, err := agent.Run(context.Background(), "I am 50")
    require.NoError(t, err)
    assert.Contains(t, reply, "Here are the top 10 trials")
    assert.Equal(t, funnel.Terminated, agent.Session().State())
    assert.Len(t, agent.Session().Candidates(), 10)

    // a further answer repeats the final list instead of failing
    reply, err = agent.Run(context.Background(), "anything else")
    require.NoError(t, err)
    assert.Contains(t, reply, "Here are the top 10 trials")
}

func TestAgentRespondAction(t *testing.T) {
    calls := 0
    client := &stubLLM{fn: func(prompt string) (string, error) {
        calls++
        switch {
        case strings.Contains(prompt, "Extract and derive"):
            return "lung cancer", nil
        case strings.Contains(prompt, "Ask a user with"):
            return "How old are you?", nil
        case strings.Contains(prompt, "most appropriate action"):
            return `{"action": "Respond", "input": "what does eligibility mean?"}`, nil
        default:
            return "Eligibility means you qualify for the trial.", nil
        }
    }}
    agent := newTestAgent(client)

    _, err := agent.Run(context.Background(), "hi")
    require.NoError(t, err)
    _, err = agent.Run(context.Background(), "lung cancer")
    require.NoError(t, err)

    before := agent.Session().Candidates()
    reply, err := agent.Run(context.Background(), "what does eligibility mean?")
    require.NoError(t, err)
    assert.Equal(t, "Eligibility means you qualify for the trial.", reply)
    // a conversational turn never narrows the funnel
    assert.Equal(t, before, agent.Session().Candidates())
}

func TestAgentUnknownActionLeavesStateUntouched(t *testing.T) {
    client := scriptedLLM(t, "lung cancer", `{"action": "DeleteEverything", "input": "x"}`)
    agent := newTestAgent(client)

    _, err := agent.Run(context.Background(), "hi")
    require.NoError(t, err)
    _, err = agent.Run(context.Background(), "lung cancer")
    require.NoError(t, err)

    before := agent.Session().Candidates()
    asked := agent.Session().AskedQuestions()
    _, err = agent.Run(context.Background(), "22")
    require.Error(t, err)
    assert.Equal(t, before, agent.Session().Candidates())
    assert.Equal(t, asked, agent.Session().AskedQuestions())
}

func TestAgentPhrasingFailureFallsBackToRawQuestion(t *testing.T) {
    client := &stubLLM{fn: func(prompt string) (string, error) {
        switch {
        case strings.Contains(prompt, "Extract and derive"):
            return "lung cancer", nil
        case strings.Contains(prompt, "Ask a user with"):
            return "", errors.New("model overloaded")
        default:
            return "", errors.New("unexpected prompt")
        }
    }}
    agent := newTestAgent(client)

    _, err := agent.Run(context.Background(), "hi")
    require.NoError(t, err)

    reply, err := agent.Run(context.Background(), "lung cancer")
    require.NoError(t, err)
    assert.Equal(t, "Age?", reply)
}

func TestParseAction(t *testing.T) {
    act, err := parseAction(`{"action": "AnswerQuestion", "input": "42"}`)
    require.NoError(t, err)
    assert.Equal(t, ActionAnswerQuestion, act.Kind)
    assert.Equal(t, "42", act.Input)

    act, err = parseAction(` {"action": "Respond", "input": "hello"} `)
    require.NoError(t, err)
    assert.Equal(t, ActionRespond, act.Kind)

    _, err = parseAction(`{"action": "Nope", "input": ""}`)
    assert.Error(t, err)

    _, err = parseAction(`not json at all`)
    assert.Error(t, err)
}

var _ llm.Client = (*stubLLM)(nil)
