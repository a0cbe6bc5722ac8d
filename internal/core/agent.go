package core

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "go.uber.org/zap"

    "trialfunnel/internal/funnel"
    "trialfunnel/internal/llm"
    "trialfunnel/pkg"
)

// Agent routes user messages between plain conversation and the trial
// funnel.  The funnel session carries all per-conversation state; the agent
// itself only holds collaborators.
type Agent struct {
    llm     llm.Client
    session *funnel.Session
    log     *zap.Logger
}

// NewAgent wires an LLM client to a funnel session.
func NewAgent(client llm.Client, session *funnel.Session, log *zap.Logger) *Agent {
    if log == nil {
        log = zap.NewNop()
    }
    return &Agent{llm: client, session: session, log: log}
}

// Session exposes the underlying funnel session, e.g. for the trials
// endpoint.
func (a *Agent) Session() *funnel.Session { return a.session }

// Run processes one user message and returns the user-facing reply.  On
// error the session state is unchanged and the turn can be retried.
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
    act, err := a.route(ctx, input)
    if err != nil {
        return "", err
    }
    a.log.Debug("action routed", zap.Stringer("action", act.Kind))
    return a.dispatch(ctx, act)
}

// route decides the action for a message.  The first two turns are fixed by
// the condition tri-state; only after the condition is set does the LLM
// choose between answering the open question and plain conversation.
func (a *Agent) route(ctx context.Context, input string) (Action, error) {
    switch _, status := a.session.Condition(); status {
    case funnel.ConditionUnset:
        return Action{Kind: ActionAskForCondition, Input: input}, nil
    case funnel.ConditionPending:
        return Action{Kind: ActionExtractCondition, Input: input}, nil
    }
    prompt := fmt.Sprintf(RouterPrompt, formatHistory(a.session.History()), a.session.LastQuestion(), input)
    raw, err := a.llm.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
    if err != nil {
        return Action{}, fmt.Errorf("routing message: %w", err)
    }
    return parseAction(raw)
}

func (a *Agent) dispatch(ctx context.Context, act Action) (string, error) {
    switch act.Kind {
    case ActionAskForCondition:
        a.session.AppendTurn(pkg.RolePatient, act.Input)
        a.session.MarkConditionPending()
        a.session.AppendTurn(pkg.RoleBot, ConditionPrompt)
        return ConditionPrompt, nil

    case ActionExtractCondition:
        raw, err := a.llm.Chat(ctx, []llm.Message{{Role: "user", Content: fmt.Sprintf(ExtractConditionPrompt, act.Input)}})
        if err != nil {
            return "", fmt.Errorf("extracting condition: %w", err)
        }
        condition := strings.ToLower(strings.TrimSpace(raw))
        res, err := a.session.SetCondition(condition)
        if err != nil {
            return "", err
        }
        return a.render(ctx, res)

    case ActionAnswerQuestion:
        res, err := a.session.SubmitAnswer(act.Input)
        if errors.Is(err, funnel.ErrSessionTerminated) {
            // The funnel already finished; repeat the final list.
            return finalList(a.session.Candidates()), nil
        }
        if err != nil {
            return "", err
        }
        return a.render(ctx, res)

    case ActionRespond:
        reply, err := a.llm.Chat(ctx, []llm.Message{{Role: "user", Content: act.Input}})
        if err != nil {
            return "", fmt.Errorf("generating response: %w", err)
        }
        a.session.AppendTurn(pkg.RolePatient, act.Input)
        a.session.AppendTurn(pkg.RoleBot, reply)
        return reply, nil

    default:
        return "", fmt.Errorf("unhandled action %v", act.Kind)
    }
}

// render turns a funnel step into user-facing text: the final trial list,
// or the next question phrased by the LLM.  A phrasing failure falls back
// to the raw question text so the already-advanced funnel stays consistent
// with what the user sees.
func (a *Agent) render(ctx context.Context, res funnel.StepResult) (string, error) {
    if res.Done {
        return finalList(res.Trials), nil
    }
    condition, _ := a.session.Condition()
    phrased, err := a.llm.Chat(ctx, []llm.Message{{Role: "user", Content: fmt.Sprintf(PhraseQuestionPrompt, condition, res.NextQuestion)}})
    if err != nil {
        a.log.Warn("question phrasing failed, using raw question", zap.Error(err))
        return res.NextQuestion, nil
    }
    return phrased, nil
}

func finalList(trials []string) string {
    return fmt.Sprintf("Here are the top %d trials that match your criteria:\n\n%s",
        len(trials), strings.Join(trials, ", "))
}

func formatHistory(turns []pkg.Turn) string {
    if len(turns) == 0 {
        return "(empty)"
    }
    var b strings.Builder
    for _, t := range turns {
        fmt.Fprintf(&b, "%s: %s\n", t.Role, t.Content)
    }
    return b.String()
}
