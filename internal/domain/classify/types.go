package classify

// SafetyResult is the content policy verdict for one image.
type SafetyResult struct {
	IsSafe          bool    `json:"is_safe"`
	NSFWProbability float64 `json:"nsfw_probability"`
}

// Prediction is one ranked label from the species classifier.
type Prediction struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// SpeciesResult carries the detected species and the ranked candidates.
type SpeciesResult struct {
	Species        string       `json:"species"`
	Confidence     float64      `json:"confidence"`
	TopPredictions []Prediction `json:"top_predictions"`
}

// BreedProbability is one ranked breed candidate.
type BreedProbability struct {
	Breed       string  `json:"breed"`
	Probability float64 `json:"probability"`
}

// CrossbreedAnalysis is populated only when the gap heuristic flags a mix.
type CrossbreedAnalysis struct {
	DetectedBreeds      [2]string `json:"detected_breeds"`
	CommonName          string    `json:"common_name,omitempty"`
	ConfidenceReasoning string    `json:"confidence_reasoning"`
}

// BreedAnalysis is the gateway's final verdict for one image.
// Invariant: IsLikelyCrossbreed is true exactly when Crossbreed is non-nil,
// and BreedProbabilities is ordered descending by probability.
type BreedAnalysis struct {
	PrimaryBreed       string              `json:"primary_breed"`
	Confidence         float64             `json:"confidence"`
	IsLikelyCrossbreed bool                `json:"is_likely_crossbreed"`
	BreedProbabilities []BreedProbability  `json:"breed_probabilities"`
	Crossbreed         *CrossbreedAnalysis `json:"crossbreed_analysis,omitempty"`
}
