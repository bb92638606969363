package mongodb

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/store"
)

// layout names the fields of the listing collection and its Atlas vector index.
type layout struct {
	index        string
	textKey      string
	embeddingKey string
	metadataKey  string
}

type DB struct {
	client     *mongo.Client
	collection *mongo.Collection
	layout     layout
}

// NewDB connects to the MongoDB deployment named by the profile DSN.
// The client handle is shared by every request for the lifetime of the process.
func NewDB(ctx context.Context, profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(profile.DSN))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}

	slog.Info("connected to mongodb",
		"database", profile.Database,
		"collection", profile.Collection,
		"index", profile.VectorIndex,
	)

	return &DB{
		client:     client,
		collection: client.Database(profile.Database).Collection(profile.Collection),
		layout: layout{
			index:        profile.VectorIndex,
			textKey:      profile.TextKey,
			embeddingKey: profile.EmbeddingKey,
			metadataKey:  profile.MetadataKey,
		},
	}, nil
}

func (d *DB) Close() error {
	return d.client.Disconnect(context.Background())
}

// Migrate is a no-op: the collection schema and the Atlas vector index are managed outside this service.
func (d *DB) Migrate(_ context.Context) error {
	return nil
}
