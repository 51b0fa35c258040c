package domain

// Step is the dialogue position of a session. Exactly one step is active at a time.
type Step string

const (
	StepIdle                 Step = ""
	StepAwaitingConfirmation Step = "awaiting_log_confirmation"
	StepAwaitingName         Step = "awaiting_user_name"
	StepAwaitingPhone        Step = "awaiting_user_phone"
)

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	switch s {
	case StepIdle, StepAwaitingConfirmation, StepAwaitingName, StepAwaitingPhone:
		return true
	}
	return false
}

// Conversation is the per-session dialogue context.
type Conversation struct {
	Step       Step
	DonorName  string
	DonorPhone string
}

// Session bundles the dialogue context with the most recent search results.
// Organizations survives a conversation reset and is replaced, never merged,
// by the next successful search.
type Session struct {
	ID            string
	Conversation  Conversation
	Organizations []Organization
}
