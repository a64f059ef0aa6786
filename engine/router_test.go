package engine

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		call PlannedCall
		res  ExecutionResult
		want Disposition
	}{
		{
			name: "success default passthrough",
			call: PlannedCall{Tool: "echo"},
			res:  ExecutionResult{Tool: "echo", Success: true, Output: "hi"},
			want: DispositionPassthrough,
		},
		{
			name: "success explicit passthrough",
			call: PlannedCall{Tool: "echo", Passthrough: boolPtr(true)},
			res:  ExecutionResult{Tool: "echo", Success: true, Output: "hi"},
			want: DispositionPassthrough,
		},
		{
			name: "success with passthrough disabled",
			call: PlannedCall{Tool: "echo", Passthrough: boolPtr(false)},
			res:  ExecutionResult{Tool: "echo", Success: true, Output: "hi"},
			want: DispositionReview,
		},
		{
			name: "failure default passthrough",
			call: PlannedCall{Tool: "echo"},
			res:  ExecutionResult{Tool: "echo", Error: "unknown tool"},
			want: DispositionReview,
		},
		{
			name: "failure with passthrough disabled",
			call: PlannedCall{Tool: "echo", Passthrough: boolPtr(false)},
			res:  ExecutionResult{Tool: "echo", Error: "boom"},
			want: DispositionReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := route(tt.call, tt.res); got != tt.want {
				t.Errorf("route() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDispositionString(t *testing.T) {
	if DispositionPassthrough.String() != "passthrough" {
		t.Errorf("unexpected: %s", DispositionPassthrough)
	}
	if DispositionReview.String() != "review" {
		t.Errorf("unexpected: %s", DispositionReview)
	}
}
