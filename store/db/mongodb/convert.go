package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// toMetadata normalizes an embedded document into a plain map.
// Anything that is not a document yields an empty map.
func toMetadata(raw any) map[string]any {
	switch doc := raw.(type) {
	case bson.M:
		return normalizeMap(doc)
	case map[string]any:
		return normalizeMap(doc)
	case bson.D:
		return normalizeMap(doc.Map())
	default:
		return map[string]any{}
	}
}

func normalizeMap(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = normalizeValue(v)
	}
	return out
}

// normalizeValue strips driver types out of nested metadata so nothing bson-specific reaches callers.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case primitive.ObjectID:
		return formatID(val)
	case bson.M:
		return normalizeMap(val)
	case bson.D:
		return normalizeMap(val.Map())
	case bson.A:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case primitive.DateTime:
		return val.Time()
	default:
		return val
	}
}

func toFloat64(raw any) float64 {
	switch n := raw.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}

// toEmbedding reads a stored vector. Non-numeric arrays and empty arrays yield nil.
func toEmbedding(raw any) []float32 {
	var items []any
	switch arr := raw.(type) {
	case bson.A:
		items = arr
	case []any:
		items = arr
	default:
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	vec := make([]float32, len(items))
	for i, item := range items {
		switch item.(type) {
		case float64, float32, int32, int64, int:
			vec[i] = float32(toFloat64(item))
		default:
			return nil
		}
	}
	return vec
}

func toFloat64s(vec []float32) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}
