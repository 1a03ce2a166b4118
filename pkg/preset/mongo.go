package preset

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kaltenberg/overmark/pkg/errors"
	"github.com/kaltenberg/overmark/pkg/observability"
)

// MongoConfig configures the MongoDB preset store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore is a MongoDB-backed preset store for persistent shared catalogs.
// The preset name is the document _id, so duplicate rejection rides on the
// collection's unique index.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "overmark"
	}
	if cfg.Collection == "" {
		cfg.Collection = "presets"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "ping mongodb")
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *MongoStore) Save(ctx context.Context, p Preset) error {
	if err := prepare(&p); err != nil {
		return err
	}

	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.New(errors.ErrCodePresetDuplicate, "preset %q already exists", p.Name)
		}
		return errors.Wrap(errors.ErrCodeInternal, err, "store preset %q", p.Name)
	}
	observability.Preset().OnPresetSave(ctx, "mongo", p.Name)
	return nil
}

func (s *MongoStore) Load(ctx context.Context, name string) (Preset, error) {
	if err := ValidateName(name); err != nil {
		return Preset{}, err
	}

	var p Preset
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		observability.Preset().OnPresetLoad(ctx, "mongo", name, false)
		return Preset{}, errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	if err != nil {
		return Preset{}, errors.Wrap(errors.ErrCodeInternal, err, "load preset %q", name)
	}
	observability.Preset().OnPresetLoad(ctx, "mongo", name, true)
	return p, nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list presets")
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var doc struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode preset name")
		}
		names = append(names, doc.Name)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "iterate presets")
	}
	sort.Strings(names)
	return names, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}

	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete preset %q", name)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	observability.Preset().OnPresetDelete(ctx, "mongo", name)
	return nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
