package domain

import "time"

// Result is the outcome of one skill invocation, passed back through the
// dispatcher to the handler unchanged.
type Result struct {
	TurnID      string
	Text        string
	RoutedSkill string
	Finished    bool

	Suggested []string
	Meta      map[string]any
	Latency   time.Duration
	Err       string
}

// ErrorResult builds a terminal Result for a failed invocation. Err set
// implies Finished; the pipeline never retries a failed skill within the
// same dispatch.
func ErrorResult(turnID, errMsg string) Result {
	return Result{
		TurnID:      turnID,
		Text:        errMsg,
		RoutedSkill: "error",
		Finished:    true,
		Err:         errMsg,
	}
}

// IsError reports whether the result carries a failure description.
func (r Result) IsError() bool {
	return r.Err != ""
}
