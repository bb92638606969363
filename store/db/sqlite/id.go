package sqlite

import (
	"github.com/google/uuid"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/staynest/store"
)

// Listing ids are UUIDs stored as 16-byte BLOBs and exposed in base57 shortuuid form.
var idEncoder = shortuuid.DefaultEncoder

// parseID converts a canonical listing id into its UUID.
// Only the exact encoding produced by formatID is accepted.
func parseID(id string) (uuid.UUID, error) {
	u, err := idEncoder.Decode(id)
	if err != nil || idEncoder.Encode(u) != id {
		return uuid.Nil, errors.Wrapf(store.ErrInvalidID, "%q is not a short uuid", id)
	}
	return u, nil
}

func parseIDs(ids []string) []uuid.UUID {
	list := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if u, err := parseID(id); err == nil {
			list = append(list, u)
		}
	}
	return list
}

// formatID is the only place a stored UUID becomes a listing id.
func formatID(u uuid.UUID) string {
	return idEncoder.Encode(u)
}

func idFromBytes(raw []byte) (string, error) {
	u, err := uuid.FromBytes(raw)
	if err != nil {
		return "", errors.Wrap(err, "corrupt listing id")
	}
	return formatID(u), nil
}
