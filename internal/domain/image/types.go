package image

// Payload is the validated image artefact handed to the pipeline. It lives
// for the duration of one analysis request.
type Payload struct {
	Bytes  []byte
	Base64 string
	Format string
	Width  int
	Height int
}

// Code identifies the validation failure class.
type Code string

const (
	CodeInvalidFormat Code = "INVALID_IMAGE_FORMAT"
	CodeTooLarge      Code = "IMAGE_TOO_LARGE"
	CodeTooSmall      Code = "IMAGE_TOO_SMALL"
)

// ValidationError describes why a payload was refused. It is a deterministic
// local rejection, never a retryable fault.
type ValidationError struct {
	Code    Code
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return string(e.Code) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Code) + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
