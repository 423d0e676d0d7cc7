package entity

// OutcomeKind tags the result of a single toggle
type OutcomeKind string

const (
	OutcomeCompleted     OutcomeKind = "completed"
	OutcomeUncompleted   OutcomeKind = "uncompleted"
	OutcomeStreakUpdated OutcomeKind = "streak_updated"
	OutcomeError         OutcomeKind = "error"
)

// Outcome is the tagged result of one toggle. Exactly one is produced per invocation.
type Outcome struct {
	Kind    OutcomeKind
	HabitID string
	Streak  int

	// Set only when Kind is OutcomeError
	Err error
}

// Message returns the user-visible error text, empty for successful outcomes
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Listener receives the outcome of a toggle
type Listener interface {
	Completed(habitID string, streak int)
	Uncompleted(habitID string, streak int)
	StreakUpdated(habitID string, streak int)
	Error(habitID string, message string)
}

// Deliver invokes exactly one listener method matching the outcome
func (o Outcome) Deliver(l Listener) {
	if l == nil {
		return
	}
	switch o.Kind {
	case OutcomeCompleted:
		l.Completed(o.HabitID, o.Streak)
	case OutcomeUncompleted:
		l.Uncompleted(o.HabitID, o.Streak)
	case OutcomeStreakUpdated:
		l.StreakUpdated(o.HabitID, o.Streak)
	default:
		l.Error(o.HabitID, o.Message())
	}
}
