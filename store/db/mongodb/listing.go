package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hrygo/staynest/store"
)

// vectorSearchPipeline translates the search options into an Atlas $vectorSearch aggregation
// that projects only the fields a match needs.
func (l layout) vectorSearchPipeline(opts *store.VectorSearchOptions) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: l.index},
			{Key: "path", Value: l.embeddingKey},
			{Key: "queryVector", Value: toFloat64s(opts.Vector)},
			{Key: "numCandidates", Value: opts.NumCandidates},
			{Key: "limit", Value: opts.Limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: l.textKey, Value: 1},
			{Key: l.metadataKey, Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

// toMatch normalizes one aggregation result. Missing text or metadata default to empty values.
func (l layout) toMatch(doc bson.M) *store.ListingMatch {
	text, _ := doc[l.textKey].(string)
	return &store.ListingMatch{
		ID:       formatID(doc["_id"]),
		Text:     text,
		Metadata: toMetadata(doc[l.metadataKey]),
		Score:    toFloat64(doc["score"]),
	}
}

func (l layout) toListing(doc bson.M) *store.Listing {
	text, _ := doc[l.textKey].(string)
	return &store.Listing{
		ID:        formatID(doc["_id"]),
		Text:      text,
		Image:     toMetadata(doc[l.metadataKey]),
		Embedding: toEmbedding(doc[l.embeddingKey]),
	}
}

func (l layout) findFilter(find *store.FindListing) (bson.D, bool) {
	filter := bson.D{}
	idCond := bson.D{}
	if find.IDList != nil {
		oids := parseIDs(find.IDList)
		if len(oids) == 0 {
			return nil, false
		}
		idCond = append(idCond, bson.E{Key: "$in", Value: oids})
	}
	if len(find.ExcludeIDs) > 0 {
		if oids := parseIDs(find.ExcludeIDs); len(oids) > 0 {
			idCond = append(idCond, bson.E{Key: "$nin", Value: oids})
		}
	}
	if len(idCond) > 0 {
		filter = append(filter, bson.E{Key: "_id", Value: idCond})
	}
	if find.MissingEmbedding {
		filter = append(filter, l.missingEmbedding())
	}
	return filter, true
}

// missingEmbedding matches documents whose vector is absent, null or empty.
// Those are the documents $vectorSearch cannot see.
func (l layout) missingEmbedding() bson.E {
	return bson.E{Key: "$or", Value: bson.A{
		bson.D{{Key: l.embeddingKey, Value: nil}},
		bson.D{{Key: l.embeddingKey, Value: bson.D{{Key: "$size", Value: 0}}}},
	}}
}

func (d *DB) GetListing(ctx context.Context, id string) (*store.Listing, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var doc bson.M
	err = d.collection.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find listing")
	}
	return d.layout.toListing(doc), nil
}

func (d *DB) ListListings(ctx context.Context, find *store.FindListing) ([]*store.Listing, error) {
	filter, ok := d.layout.findFilter(find)
	if !ok {
		return []*store.Listing{}, nil
	}

	opts := options.Find()
	if find.Limit > 0 {
		opts.SetLimit(int64(find.Limit))
	}

	cursor, err := d.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list listings")
	}

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "failed to decode listings")
	}

	list := make([]*store.Listing, 0, len(docs))
	for _, doc := range docs {
		list = append(list, d.layout.toListing(doc))
	}
	return list, nil
}

func (d *DB) CreateListing(ctx context.Context, create *store.Listing) (*store.Listing, error) {
	doc := bson.D{
		{Key: d.layout.textKey, Value: create.Text},
		{Key: d.layout.metadataKey, Value: create.Image},
	}
	if create.HasEmbedding() {
		doc = append(doc, bson.E{Key: d.layout.embeddingKey, Value: toFloat64s(create.Embedding)})
	}

	result, err := d.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert listing")
	}

	created := *create
	created.ID = formatID(result.InsertedID)
	return &created, nil
}

func (d *DB) UpdateListingEmbeddings(ctx context.Context, updates []*store.ListingEmbedding) (int, error) {
	models := make([]mongo.WriteModel, 0, len(updates))
	for _, u := range updates {
		oid, err := parseID(u.ListingID)
		if err != nil {
			return 0, err
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: oid}}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{{Key: d.layout.embeddingKey, Value: toFloat64s(u.Embedding)}}}}))
	}

	result, err := d.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, errors.Wrap(err, "failed to bulk update embeddings")
	}
	return int(result.ModifiedCount), nil
}

func (d *DB) CountListingsWithoutEmbedding(ctx context.Context) (int64, error) {
	count, err := d.collection.CountDocuments(ctx, bson.D{d.layout.missingEmbedding()})
	if err != nil {
		return 0, errors.Wrap(err, "failed to count listings without embedding")
	}
	return count, nil
}

func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ListingMatch, error) {
	cursor, err := d.collection.Aggregate(ctx, d.layout.vectorSearchPipeline(opts))
	if err != nil {
		return nil, errors.Wrap(err, "failed to run $vectorSearch")
	}
	defer cursor.Close(ctx)

	matches := []*store.ListingMatch{}
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode vector search result")
		}
		matches = append(matches, d.layout.toMatch(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "vector search cursor failed")
	}
	return matches, nil
}
