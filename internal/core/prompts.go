package core

// prompts.go collects the prompt text used by the agent.  Keeping the
// prompts in a separate file makes them easy to tweak without touching the
// routing logic.

const (
    // ConditionPrompt is the fixed opener sent before any LLM call, when
    // the user has not yet stated a condition.
    ConditionPrompt = "What condition would you like to search clinical trials for?"

    // RouterPrompt asks the LLM to pick the next action for a message from
    // a user whose condition is already known.  The reply must be a single
    // JSON object naming one of the closed set of actions.
    RouterPrompt = `You can use tools and memory to decide what is the most appropriate action to take. Decide what tool you want to use, and then use it by typing the name of the tool. You can use the following tools:

AnswerQuestion: Used to follow up on a question that has already been asked. Use this when the user is answering an eligibility question about their situation (for example an age, a measurement, or a category).
Respond: Only use this tool if no other tool is appropriate. This tool will respond to the user's input conversationally.

Here's your current memory:
%s

Your goal is to narrow down the list of clinical trials that are relevant to the user.

The question the user was last asked: %q

Use the following format for your response:

{
    "action": "$TOOL_NAME",
    "input": "$RAW_USER_INPUT"
}

where action is exactly one of [AnswerQuestion, Respond] and input is the input to the tool. Reply with the JSON object only.

User input: %s`

    // ExtractConditionPrompt derives a searchable condition term from a
    // free-text description.
    ExtractConditionPrompt = "Extract and derive the condition name to its main cancer type. The output should be the cancer name in lower case and nothing else: %s"

    // PhraseQuestionPrompt turns a raw eligibility question into a
    // user-facing one, with units guidance.
    PhraseQuestionPrompt = "Ask a user with %s this question but make it clear what unit the response should be in: %s. Show a couple of examples of what a good response would look like. Ask for the raw value, without units."
)
