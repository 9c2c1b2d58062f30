package entities

import (
	"bytes"
	"encoding/json"
)

// ExtractionFailureMessage is the error text stored when a completion could
// not be parsed into a document. Clients detect failures by the presence of
// the "error" key.
const ExtractionFailureMessage = "Failed to parse AI response"

// FailurePayload is the stored form of a failed extraction. Raw keeps the
// completion text for operators; it is not meant for end users.
type FailurePayload struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// ContentPayload holds either a generated document or a failure payload.
type ContentPayload struct {
	Content *GeneratedContent
	Failure *FailurePayload
}

// ContentPayloadOf wraps a document.
func ContentPayloadOf(content *GeneratedContent) ContentPayload {
	return ContentPayload{Content: content}
}

// FailurePayloadOf wraps a failed extraction of raw.
func FailurePayloadOf(raw string) ContentPayload {
	return ContentPayload{Failure: &FailurePayload{Error: ExtractionFailureMessage, Raw: raw}}
}

// IsEmpty reports whether neither a document nor a failure is held.
func (p ContentPayload) IsEmpty() bool {
	return p.Content == nil && p.Failure == nil
}

// IsFailure reports whether the payload is a failure payload.
func (p ContentPayload) IsFailure() bool {
	return p.Failure != nil
}

// MarshalJSON writes the failure payload, the document, or null.
func (p ContentPayload) MarshalJSON() ([]byte, error) {
	switch {
	case p.Failure != nil:
		return json.Marshal(p.Failure)
	case p.Content != nil:
		return json.Marshal(p.Content)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads either shape; an object with an "error" key is a failure.
func (p *ContentPayload) UnmarshalJSON(data []byte) error {
	*p = ContentPayload{}
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}
	if _, ok := object["error"]; ok {
		var failure FailurePayload
		if err := json.Unmarshal(data, &failure); err != nil {
			return err
		}
		p.Failure = &failure
		return nil
	}

	var content GeneratedContent
	if err := json.Unmarshal(data, &content); err != nil {
		return err
	}
	p.Content = &content
	return nil
}
