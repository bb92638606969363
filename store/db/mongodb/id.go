package mongodb

import (
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hrygo/staynest/store"
)

// parseID converts a canonical listing id into an ObjectID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(store.ErrInvalidID, "%q is not an ObjectID", id)
	}
	return oid, nil
}

// parseIDs converts the well-formed ids and silently drops the rest.
func parseIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

// formatID is the only place a raw _id value becomes a string.
// ObjectIDs render as lowercase hex so that parseID(formatID(oid)) == oid.
func formatID(raw any) string {
	switch id := raw.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	case nil:
		return ""
	default:
		return fmt.Sprint(id)
	}
}
