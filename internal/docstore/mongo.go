package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo stores each entity collection as a MongoDB collection with the
// business code as _id.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongo connects to uri and pings the deployment.
func NewMongo(ctx context.Context, uri, database string, opts PoolOptions) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo connection uri is empty")
	}

	clientOptions := options.Client().ApplyURI(uri).SetConnectTimeout(10 * time.Second)
	if opts.MaxConns > 0 {
		clientOptions.SetMaxPoolSize(uint64(opts.MaxConns))
	}
	if opts.MinConns > 0 {
		clientOptions.SetMinPoolSize(uint64(opts.MinConns))
	}
	if opts.MaxConnIdleTime > 0 {
		clientOptions.SetMaxConnIdleTime(opts.MaxConnIdleTime)
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Mongo{client: client, db: client.Database(database)}, nil
}

func (m *Mongo) Upsert(ctx context.Context, collection, key string, doc Document) error {
	if err := validate(collection, key); err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		set[escapeKey(k)] = v
	}
	if len(set) == 0 {
		return nil
	}

	opts := options.Update().SetUpsert(true)
	_, err := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": key}, bson.M{"$set": set}, opts)
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", collection, key, err)
	}
	return nil
}

func (m *Mongo) Get(ctx context.Context, collection, key string) (Record, error) {
	var raw bson.M
	err := m.db.Collection(collection).FindOne(ctx, bson.M{"_id": key}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	delete(raw, "_id")
	return Record{Key: key, Doc: fromBSON(raw)}, nil
}

func (m *Mongo) List(ctx context.Context, collection, orderBy string) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: escapeKey(orderBy), Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var out []Record
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		key := fmt.Sprint(raw["_id"])
		delete(raw, "_id")
		out = append(out, Record{Key: key, Doc: fromBSON(raw)})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return out, nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Top-level field names reach $set as paths, so "INDEX.1" would nest and
// "$x" would be read as an operator. They are stored percent-escaped.
var (
	keyEscaper   = strings.NewReplacer("%", "%25", ".", "%2E", "$", "%24")
	keyUnescaper = strings.NewReplacer("%25", "%", "%2E", ".", "%24", "$")
)

func escapeKey(k string) string   { return keyEscaper.Replace(k) }
func unescapeKey(k string) string { return keyUnescaper.Replace(k) }

// fromBSON converts a stored document back into plain Go values.
func fromBSON(m bson.M) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[unescapeKey(k)] = plainValue(v)
	}
	return out
}

func fromNestedBSON(m bson.M) Document {
	out := make(Document, len(m))
	for k, v := range m {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch x := v.(type) {
	case bson.M:
		return fromNestedBSON(x)
	case bson.D:
		return fromNestedBSON(x.Map())
	case bson.A:
		list := make([]any, len(x))
		for i, item := range x {
			list[i] = plainValue(item)
		}
		return list
	case primitive.DateTime:
		return x.Time().UTC()
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return v
	}
}

var _ Store = (*Mongo)(nil)
