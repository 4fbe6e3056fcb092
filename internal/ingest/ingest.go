package ingest

import (
	"errors"
	"fmt"
	"mime"
	"strings"
	"unicode/utf8"
)

// ErrUnsupportedFormat is returned for uploads that are neither plain text
// nor PDF.
var ErrUnsupportedFormat = errors.New("unsupported file type")

// ExtractionError reports a failure to extract text from a supported file.
// Page is set when the failure is tied to a specific PDF page (1-based).
type ExtractionError struct {
	Page int
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extracting page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("extracting text: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extract converts an uploaded file into plain text based on its declared
// content type. Plain text is decoded as UTF-8; PDFs are extracted page by
// page in order, concatenated without separators; anything else is rejected
// with ErrUnsupportedFormat. The extracted text is returned whole, never
// truncated or chunked.
func Extract(data []byte, contentType string) (string, error) {
	mediaType := strings.ToLower(contentType)
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case "text/plain":
		if !utf8.Valid(data) {
			return "", &ExtractionError{Err: errors.New("file is not valid UTF-8 text")}
		}
		return string(data), nil
	case "application/pdf":
		return extractPDF(data)
	default:
		return "", ErrUnsupportedFormat
	}
}
