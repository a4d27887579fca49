package vision

// Rejection codes, stable across the public API.
const (
	CodeContentPolicyViolation = "CONTENT_POLICY_VIOLATION"
	CodeUnsupportedSpecies     = "UNSUPPORTED_SPECIES"
	CodeSpeciesDetectionFailed = "SPECIES_DETECTION_FAILED"
	CodeBreedDetectionFailed   = "BREED_DETECTION_FAILED"
)

// RejectionError terminates a pipeline run at one of the gates. It carries
// the machine-readable code the transport layer puts on the wire.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	return e.Code + ": " + e.Message
}

func reject(code, message string) *RejectionError {
	return &RejectionError{Code: code, Message: message}
}
