package classify

import (
	"fmt"
	"sort"
	"strings"
)

// commonCrossbreedNames maps a normalised parent-breed pair to its
// colloquial mix name. Keys are "a+b" with the parents sorted.
var commonCrossbreedNames = map[string]string{
	"golden_retriever+poodle":   "Goldendoodle",
	"labrador_retriever+poodle": "Labradoodle",
	"cocker_spaniel+poodle":     "Cockapoo",
	"beagle+pug":                "Puggle",
	"chihuahua+dachshund":       "Chiweenie",
	"husky+pomeranian":          "Pomsky",
	"maltese+poodle":            "Maltipoo",
}

// resolveBreedAnalysis applies the probability-gap heuristic to the ranked
// breed distribution. A purebred produces a single dominant probability,
// while a classifier trained only on purebreds spreads a true crossbreed
// across two close, non-trivial candidates. When the runner-up probability
// reaches secondThreshold the image is flagged as a likely mix and the
// confidence is the blend (top+second)/2.
func resolveBreedAnalysis(probs []BreedProbability, secondThreshold float64) (*BreedAnalysis, error) {
	if len(probs) == 0 {
		return nil, fmt.Errorf("empty breed distribution")
	}

	sort.SliceStable(probs, func(i, j int) bool {
		return probs[i].Probability > probs[j].Probability
	})

	top := probs[0]
	analysis := &BreedAnalysis{
		PrimaryBreed:       top.Breed,
		Confidence:         top.Probability,
		BreedProbabilities: probs,
	}

	if len(probs) < 2 || probs[1].Probability < secondThreshold {
		return analysis, nil
	}

	second := probs[1]
	analysis.IsLikelyCrossbreed = true
	analysis.Confidence = (top.Probability + second.Probability) / 2
	analysis.Crossbreed = &CrossbreedAnalysis{
		DetectedBreeds: [2]string{top.Breed, second.Breed},
		CommonName:     lookupCommonName(top.Breed, second.Breed),
		ConfidenceReasoning: fmt.Sprintf(
			"top two probabilities %.4f and %.4f are both above %.4f, consistent with a %s/%s mix",
			top.Probability, second.Probability, secondThreshold, top.Breed, second.Breed,
		),
	}
	return analysis, nil
}

func lookupCommonName(a, b string) string {
	pair := []string{normalizeBreed(a), normalizeBreed(b)}
	sort.Strings(pair)
	return commonCrossbreedNames[pair[0]+"+"+pair[1]]
}

func normalizeBreed(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
