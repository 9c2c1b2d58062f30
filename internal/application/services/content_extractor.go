package services

import (
	"encoding/json"
	"strings"

	"github.com/zatekoja/clinicleads/internal/domain/entities"
)

// ExtractionError is returned when a completion holds no parseable document.
// It is data, not a transport failure: the caller stores or shows it.
type ExtractionError struct {
	Raw string
}

func (e *ExtractionError) Error() string {
	return entities.ExtractionFailureMessage
}

// Payload returns the stored form {error, raw}.
func (e *ExtractionError) Payload() entities.ContentPayload {
	return entities.FailurePayloadOf(e.Raw)
}

// ExtractContent recovers a document from completion text. The whole text is
// parsed first; failing that, the span from the first '{' to the last '}'.
// Nothing else is repaired.
func ExtractContent(text string) (*entities.GeneratedContent, error) {
	if content, ok := parseObject(text); ok {
		return content, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if content, ok := parseObject(text[start : end+1]); ok {
			return content, nil
		}
	}

	return nil, &ExtractionError{Raw: text}
}

// parseObject accepts only a JSON object; arrays, scalars and null fail.
func parseObject(text string) (*entities.GeneratedContent, bool) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &object); err != nil || object == nil {
		return nil, false
	}
	var content entities.GeneratedContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, false
	}
	return &content, true
}
