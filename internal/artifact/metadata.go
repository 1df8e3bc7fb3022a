package artifact

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Metadata is the Mongo representation of one rendered artifact.
type Metadata struct {
	DocumentID  string    `bson:"documentId" json:"documentId"`
	Key         string    `bson:"key" json:"key"`
	ContentType string    `bson:"contentType" json:"contentType"`
	Size        int64     `bson:"size" json:"size"`
	RenderedAt  time.Time `bson:"renderedAt" json:"renderedAt"`
}

// MetadataStore upserts artifact metadata keyed by document. When the
// collection is nil the store is a no-op, keeping delivery usable without
// Mongo.
type MetadataStore struct {
	col *mongo.Collection
}

func NewMetadataStore(col *mongo.Collection) *MetadataStore {
	return &MetadataStore{col: col}
}

func (s *MetadataStore) Save(ctx context.Context, md *Metadata) error {
	if s == nil || s.col == nil {
		return nil
	}
	filter := bson.M{"documentId": md.DocumentID}
	opts := options.Update().SetUpsert(true)
	_, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": md}, opts)
	return err
}

// Load fetches artifact metadata for a document. Returns nil when absent.
func (s *MetadataStore) Load(ctx context.Context, documentID string) (*Metadata, error) {
	if s == nil || s.col == nil {
		return nil, nil
	}
	var md Metadata
	if err := s.col.FindOne(ctx, bson.M{"documentId": documentID}).Decode(&md); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &md, nil
}
