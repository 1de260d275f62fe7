// Package safeupdate implements conflict-aware updates of stored entities.
//
// A client submits the snapshot it read earlier together with the values it
// wants to store. Only fields the client actually changed are written, and only
// when the store still holds the value the client saw for each of them. If any
// changed field diverged in the meantime nothing is written and the caller gets
// Overwrite, after which it may force its version through Schema.Overwrite.
//
// Staleness is detected per field value, not with a version counter: a field
// changed away and back between read and submit is not reported.
package safeupdate

// Outcome is the result of a safe update. Exactly one outcome holds for a
// given evaluation.
type Outcome string

// Update outcomes.
const (
	// Success means the changed fields were written.
	Success Outcome = "success"
	// NoChange means the proposed values equal the snapshot; nothing was written.
	NoChange Outcome = "no_change"
	// Invalid means the request was malformed or violated a validity rule.
	Invalid Outcome = "invalid"
	// NotFound means the entity no longer exists.
	NotFound Outcome = "not_found"
	// NameExists means another entity already holds the proposed unique value.
	NameExists Outcome = "name_exists"
	// Overwrite means the store changed a field the caller also changed.
	Overwrite Outcome = "overwrite"
)

var outcomes = []Outcome{Success, NoChange, Invalid, NotFound, NameExists, Overwrite}

// Outcomes lists every outcome in a stable order.
func Outcomes() []Outcome {
	return append([]Outcome(nil), outcomes...)
}

// Committed reports whether the outcome implies a write happened.
func (o Outcome) Committed() bool { return o == Success }

// Report describes how a safe update was decided.
type Report struct {
	Outcome   Outcome  `json:"outcome"`
	Changed   []string `json:"changed,omitempty"`
	Conflicts []string `json:"conflicts,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

func report(outcome Outcome, reason string) Report {
	return Report{Outcome: outcome, Reason: reason}
}
