package render

import (
	"encoding/json"
	"io"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

// resultsJSONOutput represents the JSON output format
type resultsJSONOutput struct {
	Kind        response.Kind    `json:"kind"`
	Errors      []string         `json:"errors,omitempty"`
	Explanation string           `json:"explanation,omitempty"`
	Tasks       []taskJSONOutput `json:"tasks,omitempty"`
	Notice      string           `json:"notice,omitempty"`
}

type taskJSONOutput struct {
	Title          scoring.Value `json:"title"`
	DueDate        scoring.Value `json:"due_date"`
	EstimatedHours scoring.Value `json:"estimated_hours"`
	Importance     scoring.Value `json:"importance"`
	Score          scoring.Value `json:"score"`
	Tier           scoring.Tier  `json:"tier"`
}

// JSONRenderer writes a normalized JSON document with the tier of every task.
type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer {
	return &JSONRenderer{}
}

func (r *JSONRenderer) Render(w io.Writer, resp response.Response) error {
	v := buildView(resp)
	out := resultsJSONOutput{
		Kind:        v.Kind,
		Errors:      v.Messages,
		Explanation: v.Explanation,
	}
	if v.Unexpected {
		out.Notice = UnexpectedNotice
	}
	for _, c := range v.Cards {
		out.Tasks = append(out.Tasks, taskJSONOutput{
			Title:          c.Task.Title,
			DueDate:        c.Task.DueDate,
			EstimatedHours: c.Task.EstimatedHours,
			Importance:     c.Task.Importance,
			Score:          c.Task.Score,
			Tier:           c.Tier,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
