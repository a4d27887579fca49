package model

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/errors"
)

// Traits are the individual-level traits the model reports for this animal.
type Traits struct {
	Size        string `json:"size"`
	EnergyLevel string `json:"energy_level"`
	Temperament string `json:"temperament"`
}

// Result is the parsed model output.
type Result struct {
	Description        string   `json:"description"`
	Traits             Traits   `json:"traits"`
	HealthObservations []string `json:"health_observations"`
}

// ErrMalformedResponse marks model output that failed schema validation.
// It is an infrastructure failure, never coerced into a default value.
var ErrMalformedResponse = errors.New(errors.KindVision, "parse_response", "malformed model response")

// parseResult validates the untrusted model text against the required
// schema. Models occasionally wrap the object in a markdown fence, which is
// tolerated; anything else malformed is rejected.
func parseResult(raw string) (*Result, error) {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	var result Result
	if err := sonic.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if strings.TrimSpace(result.Description) == "" {
		return nil, fmt.Errorf("%w: missing description", ErrMalformedResponse)
	}
	if result.Traits.Size == "" || result.Traits.EnergyLevel == "" || result.Traits.Temperament == "" {
		return nil, fmt.Errorf("%w: incomplete traits", ErrMalformedResponse)
	}
	if result.HealthObservations == nil {
		return nil, fmt.Errorf("%w: missing health_observations", ErrMalformedResponse)
	}

	return &result, nil
}

func stripCodeFence(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
