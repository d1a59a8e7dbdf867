package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// UploadedFile is one binary file from a bulk-save request. It is identified
// only by its position in the batch and is not retained after the call.
type UploadedFile struct {
	Content      []byte
	ContentType  string
	Size         int64
	OriginalName string
}

// ImageMetadata is one descriptor in a bulk-save request. Exactly one of
// FileIdx (new image) and ImageID (existing image) must be set.
type ImageMetadata struct {
	FileIdx     *int       `json:"fileIdx,omitempty"`
	ImageID     *uuid.UUID `json:"imageId,omitempty"`
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Main        *bool      `json:"main,omitempty"`
	Active      *bool      `json:"active,omitempty"`
	Delete      *bool      `json:"delete,omitempty"`
}

func (m *ImageMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	// absent boolean fields mean "leave/false"; an explicit null is a
	// caller bug and is rejected outright.
	for _, field := range []string{"main", "active", "delete"} {
		if val, ok := raw[field]; ok && isJSONNull(val) {
			return fmt.Errorf("field %q cannot be null", field)
		}
	}

	type alias ImageMetadata
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*m = ImageMetadata(a)
	return nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ParseMetadata turns the raw metadata field of a multipart request into
// parsed descriptors, so downstream code never sees an unparsed string.
func ParseMetadata(data []byte) ([]*ImageMetadata, error) {
	var descriptors []*ImageMetadata
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("failed to parse image metadata: %w", err)
	}
	return descriptors, nil
}

// ValidationError identifies which descriptor and field violated which rule.
// Index is -1 for batch-level violations.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return e.Message
	}
	return fmt.Sprintf("descriptor %d: %s", e.Index, e.Message)
}

func newValidationError(index int, field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Index:   index,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsValidationError reports whether err is a batch validation failure, as
// opposed to a storage or database I/O failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
