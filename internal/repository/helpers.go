package repository

import (
	"fmt"

	"github.com/google/uuid"
)

// parseUUID wraps uuid.Parse with a friendlier error for handler surfaces.
func parseUUID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return parsed, nil
}
