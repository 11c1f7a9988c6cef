package handler

import "github.com/google/uuid"

// parseUUID parses a UUID string from a request field
func parseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// parseOptionalUUID parses an optional UUID string, returning nil when empty
func parseOptionalUUID(s string) (*uuid.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
