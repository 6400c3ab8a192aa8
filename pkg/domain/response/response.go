// Package response models the payload returned by the scoring service's
// analyze and suggest endpoints as an explicit sum type.
package response

import (
	"bytes"
	"encoding/json"

	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

// Kind names a response variant.
type Kind string

const (
	KindError     Kind = "error"
	KindSuggest   Kind = "suggestion"
	KindAnalysis  Kind = "analysis"
	KindMalformed Kind = "malformed"
)

// Response is one of Error, Suggestion, AnalysisResult or Malformed.
type Response interface {
	Kind() Kind
	isResponse()
}

// Error is a logical error reported by the service. List is true when the
// service sent a sequence of messages rather than a single one.
type Error struct {
	Messages []string
	List     bool
}

// Suggestion is a task list accompanied by an explanation.
type Suggestion struct {
	Explanation string
	Tasks       []scoring.ScoredTask
}

// AnalysisResult is a plain list of scored tasks.
type AnalysisResult struct {
	Tasks []scoring.ScoredTask
}

// Malformed is anything outside the shapes above.
type Malformed struct {
	Reason string
}

func (Error) Kind() Kind          { return KindError }
func (Suggestion) Kind() Kind     { return KindSuggest }
func (AnalysisResult) Kind() Kind { return KindAnalysis }
func (Malformed) Kind() Kind      { return KindMalformed }

func (Error) isResponse()          {}
func (Suggestion) isResponse()     {}
func (AnalysisResult) isResponse() {}
func (Malformed) isResponse()      {}

// Tasks returns the task list carried by r, or nil for variants without one.
func Tasks(r Response) []scoring.ScoredTask {
	switch v := r.(type) {
	case Suggestion:
		return v.Tasks
	case AnalysisResult:
		return v.Tasks
	default:
		return nil
	}
}

// Decode classifies a raw response body. It never fails: anything it cannot
// place becomes Malformed.
//
// Order: a truthy "error" field wins over everything else; then an optional
// "explanation"; then the task list from a truthy "tasks" field, or the whole
// body when that field is absent.
func Decode(raw []byte) Response {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Malformed{Reason: "empty response"}
	}

	switch raw[0] {
	case '[':
		tasks, err := scoring.DecodeTasks(raw)
		if err != nil {
			return Malformed{Reason: "invalid task list"}
		}
		return AnalysisResult{Tasks: tasks}
	case '{':
	default:
		return Malformed{Reason: "response is neither an object nor a list"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Malformed{Reason: "invalid object"}
	}

	if errVal := scoring.NewValue(fields["error"]); errVal.Truthy() {
		return decodeError(errVal)
	}

	var explanation string
	if exp := scoring.NewValue(fields["explanation"]); exp.Truthy() {
		explanation = exp.String()
	}

	tasksVal := scoring.NewValue(fields["tasks"])
	if !tasksVal.Truthy() {
		return Malformed{Reason: "no task list in response"}
	}
	if tasksVal.Raw()[0] != '[' {
		return Malformed{Reason: "tasks is not a list"}
	}
	tasks, err := scoring.DecodeTasks(tasksVal.Raw())
	if err != nil {
		return Malformed{Reason: "invalid task list"}
	}

	if explanation != "" {
		return Suggestion{Explanation: explanation, Tasks: tasks}
	}
	return AnalysisResult{Tasks: tasks}
}

func decodeError(v scoring.Value) Error {
	if v.Raw()[0] != '[' {
		return Error{Messages: []string{v.String()}}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(v.Raw(), &items); err != nil {
		return Error{Messages: []string{v.String()}}
	}
	msgs := make([]string, 0, len(items))
	for _, item := range items {
		// Joined lists show null entries as empty text.
		if string(item) == "null" {
			msgs = append(msgs, "")
			continue
		}
		msgs = append(msgs, scoring.NewValue(item).String())
	}
	return Error{Messages: msgs, List: true}
}
