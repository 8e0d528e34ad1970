package types

import "github.com/google/uuid"

// RequestID represents a UUIDv7 evaluation request identifier.
// String alias enables type safety while maintaining JSON string
// serialization. UUIDv7 time-ordering clusters audit rows in B-tree indexes.
type RequestID string

// NewRequestID generates a UUIDv7 request identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewRequestID() RequestID {
	return RequestID(uuid.Must(uuid.NewV7()).String())
}

// ParseRequestID validates and converts a string to RequestID.
// Rejects malformed UUIDs to prevent invalid IDs from entering queries.
func ParseRequestID(s string) (RequestID, error) {
	_, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return RequestID(s), nil
}
