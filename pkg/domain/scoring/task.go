package scoring

import (
	"encoding/json"
)

// ScoredTask is a task as returned by the scoring service.
type ScoredTask struct {
	Title          Value `json:"title"`
	DueDate        Value `json:"due_date"`
	EstimatedHours Value `json:"estimated_hours"`
	Importance     Value `json:"importance"`
	Score          Value `json:"score"`
}

// Tier classifies the task's score. A missing or non-numeric score is LOW.
func (t ScoredTask) Tier() Tier {
	score, ok := t.Score.Float()
	if !ok {
		return TierLow
	}
	return ClassifyScore(score)
}

// UnmarshalJSON accepts any JSON value. Non-object entries decode to a task
// with every field absent.
func (t *ScoredTask) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		*t = ScoredTask{}
		return nil
	}
	*t = ScoredTask{
		Title:          NewValue(fields["title"]),
		DueDate:        NewValue(fields["due_date"]),
		EstimatedHours: NewValue(fields["estimated_hours"]),
		Importance:     NewValue(fields["importance"]),
		Score:          NewValue(fields["score"]),
	}
	return nil
}

// DecodeTasks decodes a JSON array into scored tasks, preserving order.
func DecodeTasks(raw json.RawMessage) ([]ScoredTask, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	tasks := make([]ScoredTask, len(items))
	for i, item := range items {
		_ = tasks[i].UnmarshalJSON(item)
	}
	return tasks, nil
}
