package capability

// Outcome describes how a capability (or one candidate) was settled.
type Outcome string

const (
	OutcomeBuilt       Outcome = "built"       // a located strategy was constructed
	OutcomeMemoized    Outcome = "memoized"    // answered from the context
	OutcomeParent      Outcome = "parent"      // satisfied by the parent capability
	OutcomeSubstituted Outcome = "substituted" // satisfied by the substitution handler
	OutcomeAbsent      Outcome = "absent"      // candidate had no strategy
	OutcomeFailed      Outcome = "failed"      // construction or resolution failed
)

// Attempt records one candidate id tried during a resolution.
type Attempt struct {
	Candidate string  `json:"candidate" yaml:"candidate"`
	Outcome   Outcome `json:"outcome" yaml:"outcome"`
	Error     string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Resolution records one Registry.Resolve call against a Context.
type Resolution struct {
	Capability string    `json:"capability" yaml:"capability"`
	Outcome    Outcome   `json:"outcome" yaml:"outcome"`
	Candidate  string    `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	Depth      int       `json:"depth" yaml:"depth"`
	Attempts   []Attempt `json:"attempts,omitempty" yaml:"attempts,omitempty"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}
