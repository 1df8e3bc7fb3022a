package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexfirma/lexfirma/backend/go-services/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a Mongo collection. Conditional status
// writes use a filter on the stored status so the write only matches when
// the status is unchanged; Mongo's single-document atomicity makes this the
// compare-and-swap that payment idempotency rests on.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// token is the public lookup key and must be unique
	idx := mongo.IndexModel{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Create(ctx context.Context, doc *document.Document) (string, error) {
	if doc.ID == "" {
		doc.ID = "doc_" + uuid.NewString()
	}
	doc.Token = strings.ToUpper(strings.TrimSpace(doc.Token))
	if doc.Status == "" {
		doc.Status = document.StatusRequested
	}
	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func (m *MongoRepo) FindByToken(ctx context.Context, token string) (*document.Document, error) {
	token = strings.ToUpper(strings.TrimSpace(token))
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"token": token}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) FindByID(ctx context.Context, id string) (*document.Document, error) {
	var d document.Document
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) UpdateStatus(ctx context.Context, id string, expected *document.Status, next document.Status, extra *Fields) (*document.Document, error) {
	exp := expected
	if exp == nil {
		// unconditional requests still go through a compare-and-swap on
		// the status read here, so a concurrent writer cannot be
		// silently overwritten
		cur, err := m.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		exp = &cur.Status
	}
	if err := document.ValidateTransition(*exp, next); err != nil {
		return nil, err
	}

	set := bson.M{"status": next, "updatedAt": time.Now().UTC()}
	if extra != nil {
		if extra.Content != nil {
			set["content"] = *extra.Content
		}
		if extra.UserObservations != nil {
			set["userObservations"] = *extra.UserObservations
		}
		if extra.UserObservationDate != nil {
			set["userObservationDate"] = *extra.UserObservationDate
		}
	}
	filter := bson.M{"_id": id, "status": *exp}
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		// either the document is gone or another writer changed the
		// status first; re-read to tell the two apart
		if _, ferr := m.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrConflict
	}
	return m.FindByID(ctx, id)
}
