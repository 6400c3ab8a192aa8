// Package dispatch connects user triggers to the scoring service and the
// output region.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/triage/pkg/domain/response"
)

// Trigger is one of the two user actions.
type Trigger string

const (
	TriggerAnalyze Trigger = "analyze"
	TriggerSuggest Trigger = "suggest"
)

// ParseTrigger parses a trigger name.
func ParseTrigger(s string) (Trigger, error) {
	switch Trigger(s) {
	case TriggerAnalyze, TriggerSuggest:
		return Trigger(s), nil
	default:
		return "", fmt.Errorf("unknown trigger %q", s)
	}
}

// Scorer is the remote scoring service.
type Scorer interface {
	Analyze(ctx context.Context, tasks json.RawMessage, strategy string) (response.Response, error)
	Suggest(ctx context.Context, tasks json.RawMessage) (response.Response, error)
}

// Fetch parses raw input and sends it to the endpoint for trigger. The
// strategy is ignored by the suggest trigger.
func Fetch(ctx context.Context, scorer Scorer, trigger Trigger, raw, strategy string) (response.Response, error) {
	tasks, err := ParseInput(raw)
	if err != nil {
		return nil, err
	}
	return send(ctx, scorer, trigger, tasks, strategy)
}

func send(ctx context.Context, scorer Scorer, trigger Trigger, tasks json.RawMessage, strategy string) (response.Response, error) {
	switch trigger {
	case TriggerAnalyze:
		return scorer.Analyze(ctx, tasks, strategy)
	case TriggerSuggest:
		return scorer.Suggest(ctx, tasks)
	default:
		return nil, fmt.Errorf("unknown trigger %q", trigger)
	}
}
