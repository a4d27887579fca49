package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/config"
	"github.com/Nihilantropy/ft-transcendence-sub003/internal/platform/logging"
)

// Validator performs layered checks against incoming image payloads.
type Validator struct {
	security *config.SecurityConfig
	logger   *logging.Logger
}

// NewValidator constructs a new validator instance.
func NewValidator(security *config.SecurityConfig, logger *logging.Logger) *Validator {
	return &Validator{
		security: security,
		logger:   logger,
	}
}

var imageSignatures = map[string][]byte{
	"jpeg": {0xFF, 0xD8},
	"jpg":  {0xFF, 0xD8},
	"png":  {0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A},
	"gif":  {0x47, 0x49, 0x46, 0x38},
	"webp": {0x52, 0x49, 0x46, 0x46},
	"bmp":  {0x42, 0x4D},
}

// ValidateBase64 strips an optional data URL prefix, decodes the base64
// payload and validates the resulting bytes.
func (v *Validator) ValidateBase64(data string, declaredFormat string) (*Payload, error) {
	data, prefixFormat := stripDataURLPrefix(data)
	if prefixFormat != "" {
		declaredFormat = prefixFormat
	}
	if data == "" {
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "missing image payload",
		}
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "invalid base64 encoding",
			Cause:   err,
		}
	}
	return v.Validate(raw, declaredFormat)
}

// Validate checks raw bytes against the configured format and size bounds
// and returns the payload the pipeline will work with. No side effects.
func (v *Validator) Validate(raw []byte, declaredFormat string) (*Payload, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "empty image payload",
		}
	}

	if v.security.MaxFileSize > 0 && int64(len(raw)) > v.security.MaxFileSize {
		v.logger.Warn(
			"oversized image rejected: size=%d max_size=%d format=%s",
			len(raw), v.security.MaxFileSize, declaredFormat,
		)
		return nil, &ValidationError{
			Code: CodeTooLarge,
			Message: fmt.Sprintf("file size %d exceeds limit of %d bytes",
				len(raw), v.security.MaxFileSize),
		}
	}

	if declaredFormat != "" && !v.isFormatAllowed(declaredFormat) {
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "unsupported format: " + declaredFormat,
		}
	}

	cfg, actualFormat, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		if declaredFormat != "" && !v.matchesSignature(raw, declaredFormat) {
			v.logger.Warn(
				"file signature mismatch: declared_format=%s actual_header=%x",
				declaredFormat, raw[:min(len(raw), 16)],
			)
		}
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "image decoding failed",
			Cause:   err,
		}
	}
	if actualFormat != "" && !v.isFormatAllowed(actualFormat) {
		return nil, &ValidationError{
			Code:    CodeInvalidFormat,
			Message: "unsupported format: " + actualFormat,
		}
	}

	if err := v.checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, err
	}

	payload := &Payload{
		Bytes:  raw,
		Base64: base64.StdEncoding.EncodeToString(raw),
		Format: actualFormat,
		Width:  cfg.Width,
		Height: cfg.Height,
	}

	v.logger.Debug(
		"image validation success: format=%s width=%d height=%d size=%d",
		payload.Format, payload.Width, payload.Height, len(raw),
	)
	return payload, nil
}

func (v *Validator) checkDimensions(width, height int) error {
	if v.security.MaxWidth > 0 && width > v.security.MaxWidth ||
		v.security.MaxHeight > 0 && height > v.security.MaxHeight {
		return &ValidationError{
			Code: CodeTooLarge,
			Message: fmt.Sprintf("dimensions %dx%d exceed limit of %dx%d",
				width, height, v.security.MaxWidth, v.security.MaxHeight),
		}
	}

	if v.security.MaxPixels > 0 && int64(width)*int64(height) > v.security.MaxPixels {
		return &ValidationError{
			Code: CodeTooLarge,
			Message: fmt.Sprintf("pixel count %d exceeds limit of %d",
				int64(width)*int64(height), v.security.MaxPixels),
		}
	}

	if width < v.security.MinWidth || height < v.security.MinHeight {
		return &ValidationError{
			Code: CodeTooSmall,
			Message: fmt.Sprintf("dimensions %dx%d below minimum of %dx%d",
				width, height, v.security.MinWidth, v.security.MinHeight),
		}
	}
	return nil
}

func (v *Validator) isFormatAllowed(format string) bool {
	if v.security == nil || len(v.security.AllowedFormats) == 0 {
		return true
	}
	format = strings.ToLower(format)
	for _, allowed := range v.security.AllowedFormats {
		if strings.ToLower(allowed) == format {
			return true
		}
	}
	return false
}

func (v *Validator) matchesSignature(raw []byte, format string) bool {
	signature, ok := imageSignatures[strings.ToLower(format)]
	if !ok || len(signature) == 0 {
		return true
	}
	if len(raw) < len(signature) {
		return false
	}
	return bytes.Equal(signature, raw[:len(signature)])
}

// stripDataURLPrefix removes a leading "data:image/<fmt>;base64," marker and
// reports the embedded format when one was present.
func stripDataURLPrefix(data string) (string, string) {
	if !strings.HasPrefix(data, "data:image/") {
		return data, ""
	}
	rest := strings.TrimPrefix(data, "data:image/")
	idx := strings.Index(rest, ";base64,")
	if idx < 0 {
		return data, ""
	}
	return rest[idx+len(";base64,"):], strings.ToLower(rest[:idx])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
