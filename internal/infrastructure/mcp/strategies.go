package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/triage/pkg/domain/scoring"
)

const strategiesURI = "triage://strategies"

type strategyInfo struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

type strategiesResponse struct {
	Strategies []strategyInfo `json:"strategies"`
	Tiers      []tierInfo     `json:"tiers"`
}

type tierInfo struct {
	Name     string  `json:"name"`
	MinScore float64 `json:"min_score"`
}

func strategiesDocument(selected scoring.Strategy) strategiesResponse {
	var resp strategiesResponse
	for _, st := range scoring.KnownStrategies() {
		resp.Strategies = append(resp.Strategies, strategyInfo{
			Name:    string(st),
			Label:   st.Label(),
			Default: st == selected,
		})
	}
	resp.Tiers = []tierInfo{
		{Name: scoring.TierHigh.String(), MinScore: scoring.HighThreshold},
		{Name: scoring.TierMedium.String(), MinScore: scoring.MediumThreshold},
		{Name: scoring.TierLow.String(), MinScore: 0},
	}
	return resp
}

func (s *Server) registerStrategiesResource() {
	s.mcpServer.Resource(strategiesURI).
		Name(strategiesURI).
		Description("Ranking strategies accepted by triage_analyze and the score thresholds of each priority tier").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			data, err := json.Marshal(strategiesDocument(s.strategy))
			if err != nil {
				return nil, err
			}
			return &mcplib.ResourceContent{
				URI:      strategiesURI,
				MimeType: "application/json",
				Text:     string(data),
			}, nil
		})
}
