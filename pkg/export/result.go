package export

import "time"

// State is a step of the export state machine:
//
//	Idle → Validating → Building → Delivering → Done
//	           ↓                       ↓
//	   FailedValidation            FailedAll
type State string

const (
	StateIdle             State = "idle"
	StateValidating       State = "validating"
	StateBuilding         State = "building"
	StateDelivering       State = "delivering"
	StateDone             State = "done"
	StateFailedValidation State = "failed_validation"
	StateFailedAll        State = "failed_all"
)

// Outcome is the result of one format.
type Outcome struct {
	Format   Format
	Filename string
	Bytes    int
	Err      error
	Duration time.Duration
}

// OK reports whether the format was built and delivered.
func (o Outcome) OK() bool { return o.Err == nil }

// Result summarizes an export invocation.
type Result struct {
	ID       string
	State    State
	Outcomes map[Format]Outcome

	// Trace lists every state entered, in order.
	Trace []State

	Duration time.Duration
}

// Files returns the delivered filenames in format order.
func (r *Result) Files() []string {
	var out []string
	for _, f := range []Format{FormatCSV, FormatDocument, FormatXLSX} {
		if o, ok := r.Outcomes[f]; ok && o.OK() {
			out = append(out, o.Filename)
		}
	}
	return out
}

func (r *Result) enter(s State) {
	r.State = s
	r.Trace = append(r.Trace, s)
}
