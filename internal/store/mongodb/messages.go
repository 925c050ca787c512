package mongodb

import (
	"context"
	"errors"
	"time"

	"taproom-services/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MessageStore struct {
	coll *mongo.Collection
}

type messageDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Phone     string    `bson:"phone"`
	Subject   string    `bson:"subject"`
	Body      string    `bson:"message"`
	Read      bool      `bson:"read"`
	CreatedAt time.Time `bson:"createdAt"`
}

func (d messageDocument) message() store.Message {
	return store.Message(d)
}

func (s *MessageStore) List(ctx context.Context, filter store.MessageFilter) ([]store.Message, error) {
	query := bson.M{}
	if filter.UnreadOnly {
		query["read"] = false
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(store.ClampLimit(filter.Limit, 100, 500)))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []messageDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]store.Message, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.message())
	}
	return out, nil
}

func (s *MessageStore) Get(ctx context.Context, id string) (store.Message, error) {
	var doc messageDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Message{}, store.ErrNotFound
	}
	if err != nil {
		return store.Message{}, err
	}
	return doc.message(), nil
}

func (s *MessageStore) Create(ctx context.Context, msg store.Message) (store.Message, error) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	msg.Read = false
	msg.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := s.coll.InsertOne(ctx, messageDocument(msg)); err != nil {
		return store.Message{}, err
	}
	return msg, nil
}

func (s *MessageStore) MarkRead(ctx context.Context, id string) (store.Message, error) {
	var doc messageDocument
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Message{}, store.ErrNotFound
	}
	if err != nil {
		return store.Message{}, err
	}
	return doc.message(), nil
}

func (s *MessageStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

type ApplicationStore struct {
	coll *mongo.Collection
}

type applicationDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	Email        string    `bson:"email"`
	Phone        string    `bson:"phone"`
	Position     string    `bson:"position"`
	Availability string    `bson:"availability"`
	Experience   string    `bson:"experience"`
	ResumeURL    string    `bson:"resumeUrl"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (s *ApplicationStore) List(ctx context.Context, limit int) ([]store.JobApplication, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(store.ClampLimit(limit, 100, 500)))
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []applicationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]store.JobApplication, 0, len(docs))
	for _, d := range docs {
		out = append(out, store.JobApplication(d))
	}
	return out, nil
}

func (s *ApplicationStore) Get(ctx context.Context, id string) (store.JobApplication, error) {
	var doc applicationDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.JobApplication{}, store.ErrNotFound
	}
	if err != nil {
		return store.JobApplication{}, err
	}
	return store.JobApplication(doc), nil
}

func (s *ApplicationStore) Create(ctx context.Context, app store.JobApplication) (store.JobApplication, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	app.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	if _, err := s.coll.InsertOne(ctx, applicationDocument(app)); err != nil {
		return store.JobApplication{}, err
	}
	return app, nil
}
