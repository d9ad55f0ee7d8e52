package harness

// Trace event types.
const (
	EventSeed   = "seed"
	EventCreate = "create"
	EventTouch  = "touch"
	EventFetch  = "fetch"
)

// TraceEvent is one observable outcome of a scenario run.
//
// Which fields are meaningful depends on Type:
//   - seed: Count
//   - create, touch: Step, ID, UpdatedAt
//   - fetch: Step, Direction, Cursor, and either IDs/Older/Newer or Error
type TraceEvent struct {
	Type      string   `json:"type"`
	Step      int      `json:"step,omitempty"`
	Count     int      `json:"count,omitempty"`
	ID        string   `json:"id,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Cursor    string   `json:"cursor,omitempty"`
	IDs       []string `json:"ids,omitempty"`
	Older     string   `json:"older,omitempty"`
	Newer     string   `json:"newer,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// canonical converts the event to plain values for record.MarshalCanonical.
// Fields that do not apply to the event type are left out.
func (e TraceEvent) canonical() map[string]any {
	m := map[string]any{"type": e.Type}

	switch e.Type {
	case EventSeed:
		m["count"] = e.Count
	case EventCreate, EventTouch:
		m["step"] = e.Step
		m["id"] = e.ID
		m["updated_at"] = e.UpdatedAt
	case EventFetch:
		m["step"] = e.Step
		m["direction"] = e.Direction
		if e.Cursor != "" {
			m["cursor"] = e.Cursor
		}
		if e.Error != "" {
			m["error"] = e.Error
			break
		}
		ids := make([]any, len(e.IDs))
		for i, id := range e.IDs {
			ids[i] = id
		}
		m["ids"] = ids
		if e.Older != "" {
			m["older"] = e.Older
		}
		if e.Newer != "" {
			m["newer"] = e.Newer
		}
	}

	return m
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause matched.
	Pass bool `json:"pass"`

	// Trace contains every write and fetch in execution order.
	// Compared against golden files.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(e TraceEvent) {
	r.Trace = append(r.Trace, e)
}
