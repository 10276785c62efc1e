package storage

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo implements KV on top of a MongoDB collection. Each key is one
// document keyed by _id, so Set is an upsert and prefix scans are a
// $regex query against _id.
type Mongo struct {
	coll *mongo.Collection
}

type kvDoc struct {
	Key       string           `bson:"_id"`
	Value     primitive.Binary `bson:"value"`
	UpdatedAt time.Time        `bson:"updatedAt"`
}

// NewMongo wraps a collection as a KV store.
func NewMongo(coll *mongo.Collection) *Mongo {
	return &Mongo{coll: coll}
}

func (s *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc kvDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Value.Data, nil
}

func (s *Mongo) Set(ctx context.Context, key string, value []byte) error {
	doc := kvDoc{
		Key:       key,
		Value:     primitive.Binary{Data: value},
		UpdatedAt: time.Now().UTC(),
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *Mongo) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *Mongo) List(ctx context.Context, prefix string) (map[string][]byte, error) {
	filter := bson.M{"_id": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string][]byte)
	for cur.Next(ctx) {
		var doc kvDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out[doc.Key] = doc.Value.Data
	}
	return out, cur.Err()
}
