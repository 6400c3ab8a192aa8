// Package render turns a decoded scoring response into visual output. Every
// renderer writes to an explicit io.Writer; none of them keep state between
// calls.
package render

import (
	"github.com/felixgeelhaar/triage/pkg/domain/response"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

const (
	ErrorLabel       = "Error:"
	ErrorsLabel      = "Errors:"
	UnexpectedNotice = "Unexpected response from server."
)

// resultsView is the format-independent shape shared by all renderers.
type resultsView struct {
	Kind        response.Kind
	Unexpected  bool
	HasError    bool
	ErrorList   bool
	Messages    []string
	Explanation string
	Cards       []cardView
}

type cardView struct {
	Task       scoring.ScoredTask
	Title      string
	DueDate    string
	Hours      string
	Importance string
	Score      string
	Tier       scoring.Tier
	Class      string
}

func buildView(resp response.Response) resultsView {
	v := resultsView{}
	if resp == nil {
		resp = response.Malformed{Reason: "no response"}
	}
	v.Kind = resp.Kind()

	switch r := resp.(type) {
	case response.Error:
		v.HasError = true
		v.ErrorList = r.List
		v.Messages = r.Messages
		if !r.List && len(v.Messages) == 0 {
			v.Messages = []string{""}
		}
		return v
	case response.Suggestion:
		v.Explanation = r.Explanation
	case response.AnalysisResult:
	default:
		v.Unexpected = true
		return v
	}

	tasks := response.Tasks(resp)
	v.Cards = make([]cardView, 0, len(tasks))
	for _, t := range tasks {
		tier := t.Tier()
		v.Cards = append(v.Cards, cardView{
			Task:       t,
			Title:      t.Title.String(),
			DueDate:    t.DueDate.String(),
			Hours:      t.EstimatedHours.String(),
			Importance: t.Importance.String(),
			Score:      t.Score.String(),
			Tier:       tier,
			Class:      tier.Class(),
		})
	}
	return v
}
