package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/classify"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/domain/knowledge"
)

const validResponse = `{
	"description": "An adult golden retriever with a healthy coat.",
	"traits": {"size": "large", "energy_level": "high", "temperament": "friendly"},
	"health_observations": ["clear eyes", "healthy coat"]
}`

func TestParseResultValid(t *testing.T) {
	result, err := parseResult(validResponse)
	if err != nil {
		t.Fatalf("parseResult error: %v", err)
	}
	if result.Traits.Size != "large" {
		t.Errorf("unexpected size: %s", result.Traits.Size)
	}
	if len(result.HealthObservations) != 2 {
		t.Errorf("unexpected observations: %v", result.HealthObservations)
	}
}

func TestParseResultToleratesMarkdownFence(t *testing.T) {
	fenced := "```json\n" + validResponse + "\n```"
	result, err := parseResult(fenced)
	if err != nil {
		t.Fatalf("parseResult error: %v", err)
	}
	if result.Description == "" {
		t.Error("description missing after fence strip")
	}
}

func TestParseResultRejectsMalformedOutput(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not json", "The dog looks happy!"},
		{"missing description", `{"traits":{"size":"s","energy_level":"e","temperament":"t"},"health_observations":[]}`},
		{"incomplete traits", `{"description":"d","traits":{"size":"s"},"health_observations":[]}`},
		{"missing observations", `{"description":"d","traits":{"size":"s","energy_level":"e","temperament":"t"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResult(tt.raw)
			if err == nil {
				t.Fatal("expected parse error")
			}
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestParseResultAcceptsEmptyObservationsList(t *testing.T) {
	raw := `{"description":"d","traits":{"size":"s","energy_level":"e","temperament":"t"},"health_observations":[]}`
	result, err := parseResult(raw)
	if err != nil {
		t.Fatalf("parseResult error: %v", err)
	}
	if len(result.HealthObservations) != 0 {
		t.Errorf("expected empty list, got %v", result.HealthObservations)
	}
}

func TestBuildPromptPurebredWithContext(t *testing.T) {
	prompt := buildPrompt("dog", &classify.BreedAnalysis{
		PrimaryBreed: "golden_retriever",
		Confidence:   0.89,
	}, &knowledge.Context{
		Description: "A friendly gun dog.",
		CareSummary: "Daily exercise.",
		HealthInfo:  "Hip dysplasia risk.",
	})

	for _, want := range []string{"golden_retriever", "0.89", "A friendly gun dog.", "Health considerations"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "(unavailable)") {
		t.Error("prompt should not carry the unavailable marker when context exists")
	}
}

func TestBuildPromptCrossbreedNamesBothParents(t *testing.T) {
	prompt := buildPrompt("dog", &classify.BreedAnalysis{
		PrimaryBreed:       "golden_retriever",
		Confidence:         0.415,
		IsLikelyCrossbreed: true,
		Crossbreed: &classify.CrossbreedAnalysis{
			DetectedBreeds: [2]string{"golden_retriever", "poodle"},
			CommonName:     "Goldendoodle",
		},
	}, nil)

	for _, want := range []string{"golden_retriever", "poodle", "Goldendoodle", "(unavailable)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPromptInstructsVisualGrounding(t *testing.T) {
	prompt := buildPrompt("cat", &classify.BreedAnalysis{PrimaryBreed: "siamese", Confidence: 0.8}, nil)
	if !strings.Contains(prompt, "visually observable in THIS image") {
		t.Error("prompt must restrict the model to this image")
	}
	if !strings.Contains(prompt, "health_observations") {
		t.Error("prompt must pin the response schema")
	}
}
