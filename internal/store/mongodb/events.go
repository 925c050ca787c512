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

type EventStore struct {
	coll *mongo.Collection
}

type eventDocument struct {
	ID            string     `bson:"_id"`
	Title         string     `bson:"title"`
	Description   string     `bson:"description"`
	Location      string     `bson:"location"`
	StartsAt      time.Time  `bson:"startsAt"`
	EndsAt        *time.Time `bson:"endsAt,omitempty"`
	TicketURL     string     `bson:"ticketUrl"`
	FlyerURL      string     `bson:"flyerUrl"`
	FlyerThumbURL string     `bson:"flyerThumbUrl"`
	Published     bool       `bson:"published"`
	CreatedAt     time.Time  `bson:"createdAt"`
	UpdatedAt     time.Time  `bson:"updatedAt"`
}

func toEventDocument(e store.Event) eventDocument {
	return eventDocument{
		ID:            e.ID,
		Title:         e.Title,
		Description:   e.Description,
		Location:      e.Location,
		StartsAt:      e.StartsAt.UTC(),
		EndsAt:        e.EndsAt,
		TicketURL:     e.TicketURL,
		FlyerURL:      e.FlyerURL,
		FlyerThumbURL: e.FlyerThumbURL,
		Published:     e.Published,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func (d eventDocument) event() store.Event {
	return store.Event{
		ID:            d.ID,
		Title:         d.Title,
		Description:   d.Description,
		Location:      d.Location,
		StartsAt:      d.StartsAt,
		EndsAt:        d.EndsAt,
		TicketURL:     d.TicketURL,
		FlyerURL:      d.FlyerURL,
		FlyerThumbURL: d.FlyerThumbURL,
		Published:     d.Published,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func (s *EventStore) List(ctx context.Context, filter store.EventFilter) ([]store.Event, error) {
	query := bson.M{}
	if !filter.IncludeDrafts {
		query["published"] = true
	}
	var and []bson.M
	if filter.From != nil {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"endsAt": bson.M{"$gte": *filter.From}},
			bson.M{"endsAt": bson.M{"$exists": false}, "startsAt": bson.M{"$gte": *filter.From}},
		}})
	}
	if filter.To != nil {
		and = append(and, bson.M{"startsAt": bson.M{"$lte": *filter.To}})
	}
	if len(and) > 0 {
		query["$and"] = and
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "startsAt", Value: 1}}).
		SetLimit(int64(store.ClampLimit(filter.Limit, 50, 200)))
	cursor, err := s.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]store.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.event())
	}
	return events, nil
}

func (s *EventStore) Get(ctx context.Context, id string) (store.Event, error) {
	var doc eventDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Event{}, store.ErrNotFound
	}
	if err != nil {
		return store.Event{}, err
	}
	return doc.event(), nil
}

func (s *EventStore) Create(ctx context.Context, event store.Event) (store.Event, error) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	event.CreatedAt, event.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, toEventDocument(event)); err != nil {
		return store.Event{}, err
	}
	return event, nil
}

func (s *EventStore) Update(ctx context.Context, event store.Event) (store.Event, error) {
	existing, err := s.Get(ctx, event.ID)
	if err != nil {
		return store.Event{}, err
	}
	event.CreatedAt = existing.CreatedAt
	event.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := s.coll.ReplaceOne(ctx, bson.M{"_id": event.ID}, toEventDocument(event))
	if err != nil {
		return store.Event{}, err
	}
	if result.MatchedCount == 0 {
		return store.Event{}, store.ErrNotFound
	}
	return event, nil
}

func (s *EventStore) Delete(ctx context.Context, id string) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
