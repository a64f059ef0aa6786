package engine

// Disposition classifies an executed result.
type Disposition int

const (
	// DispositionPassthrough streams the output straight into the answer.
	DispositionPassthrough Disposition = iota
	// DispositionReview feeds the result back to the next planning
	// iteration instead of showing it to the user.
	DispositionReview
)

func (d Disposition) String() string {
	if d == DispositionPassthrough {
		return "passthrough"
	}
	return "review"
}

// route classifies one executed result. A result is passthrough iff it
// succeeded and the originating call asked for passthrough (the default).
// Every failure, and every explicit passthrough=false request, becomes a
// review item.
func route(call PlannedCall, res ExecutionResult) Disposition {
	if res.Success && call.IsPassthrough() {
		return DispositionPassthrough
	}
	return DispositionReview
}
