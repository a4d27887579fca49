package eventbus

// Analysis lifecycle topics.
const (
	EventAnalysisCompleted = "analysis:completed"
	EventAnalysisRejected  = "analysis:rejected"
	EventAnalysisFailed    = "analysis:failed"
)

// AnalysisCompletedData accompanies EventAnalysisCompleted.
type AnalysisCompletedData struct {
	RecordID   uint    `json:"record_id"`
	ClientID   string  `json:"client_id,omitempty"`
	Species    string  `json:"species"`
	Breed      string  `json:"breed"`
	Crossbreed bool    `json:"crossbreed"`
	Confidence float64 `json:"confidence"`
	ElapsedMS  int64   `json:"elapsed_ms"`
}

// AnalysisRejectedData accompanies EventAnalysisRejected.
type AnalysisRejectedData struct {
	ClientID string `json:"client_id,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// AnalysisFailedData accompanies EventAnalysisFailed.
type AnalysisFailedData struct {
	ClientID string `json:"client_id,omitempty"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}
