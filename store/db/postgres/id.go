package postgres

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/staynest/store"
)

// parseID converts a canonical listing id into a UUID.
func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, errors.Wrapf(store.ErrInvalidID, "%q is not a UUID", id)
	}
	return u, nil
}

// parseIDs converts the well-formed ids to their canonical text and silently drops the rest.
func parseIDs(ids []string) []string {
	list := make([]string, 0, len(ids))
	for _, id := range ids {
		if u, err := parseID(id); err == nil {
			list = append(list, formatID(u))
		}
	}
	return list
}

// formatID is the only place a UUID becomes a listing id.
func formatID(u uuid.UUID) string {
	return u.String()
}
