package planparse

import (
	"encoding/json"
	"fmt"

	"goa.design/convo/runtime/catalog"
	"goa.design/convo/runtime/plan"
)

// wirePlan is the primary JSON wire shape the planner is instructed to
// produce (spec §6): {"message": "...", "steps": [{"actionId": "...",
// "description": "...", "parameters": {...}}]}.
type wirePlan struct {
	Message string     `json:"message"`
	Steps   []wireStep `json:"steps"`
}

type wireStep struct {
	ActionID    string         `json:"actionId"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

func parseJSON(content string, cat *catalog.Catalog) (*plan.Plan, error) {
	var wp wirePlan
	if err := json.Unmarshal([]byte(content), &wp); err != nil {
		return nil, fmt.Errorf("invalid JSON plan: %w", err)
	}
	steps := make([]plan.Step, 0, len(wp.Steps))
	for _, ws := range wp.Steps {
		steps = append(steps, buildStep(cat, ws.ActionID, ws.Description, ws.Parameters))
	}
	return plan.New(wp.Message, steps), nil
}
