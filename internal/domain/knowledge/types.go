package knowledge

// Context is the assembled breed knowledge handed to the analysis model.
// A nil Context is a normal state meaning retrieval produced nothing usable.
type Context struct {
	Breed        string   `json:"breed,omitempty"`
	ParentBreeds []string `json:"parent_breeds,omitempty"`
	Description  string   `json:"description"`
	CareSummary  string   `json:"care_summary"`
	HealthInfo   string   `json:"health_info"`
	Sources      []string `json:"sources"`
}

// Chunk is one ranked text fragment returned by the vector store.
type Chunk struct {
	Content string
	Source  string
	Section string
	Score   float64
}

// Section labels used when indexing breed documents.
const (
	SectionOverview = "overview"
	SectionCare     = "care"
	SectionHealth   = "health"
)
