package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taproom-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	eventsCollection       = "events"
	messagesCollection     = "messages"
	applicationsCollection = "jobapplications"
)

// Connect opens a client and verifies the primary is reachable. Menu
// publishing uses transactions, so the deployment must be a replica set.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the indexes the stores query by.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, name := range []string{store.MenusCollection, store.FallbackMenusCollection} {
		coll := db.Collection(name)
		if err := demoteExtraLatest(ctx, coll); err != nil {
			return fmt.Errorf("repair %s: %w", name, err)
		}
		_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
			{Keys: bson.D{{Key: "isLatest", Value: -1}, {Key: "createdAt", Value: -1}}},
			// at most one latest record
			{
				Keys: bson.D{{Key: "isLatest", Value: 1}},
				Options: options.Index().
					SetName("isLatest_unique").
					SetUnique(true).
					SetPartialFilterExpression(bson.M{"isLatest": true}),
			},
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	indexes := map[string]bson.D{
		eventsCollection:       {{Key: "startsAt", Value: 1}},
		messagesCollection:     {{Key: "createdAt", Value: -1}},
		applicationsCollection: {{Key: "createdAt", Value: -1}},
	}
	for name, keys := range indexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}

// demoteExtraLatest keeps only the newest latest-flagged record so the
// unique index can be built over data written before it existed.
func demoteExtraLatest(ctx context.Context, coll *mongo.Collection) error {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.D{{Key: "_id", Value: 1}})
	cursor, err := coll.Find(ctx, bson.M{"isLatest": true}, opts)
	if err != nil {
		return err
	}
	var latest []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &latest); err != nil {
		return err
	}
	if len(latest) < 2 {
		return nil
	}
	ids := make([]string, 0, len(latest)-1)
	for _, l := range latest[1:] {
		ids = append(ids, l.ID)
	}
	_, err = coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"isLatest": false}})
	return err
}

// DatabaseName picks the database from the URI path, else fallback.
func DatabaseName(uri, fallback string) string {
	rest := uri
	if idx := strings.Index(rest, "://"); idx >= 0 {
		rest = rest[idx+3:]
	}
	slash := strings.Index(rest, "/")
	if slash < 0 {
		return fallback
	}
	name := rest[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

// New returns MongoDB-backed stores on db.
func New(client *mongo.Client, db *mongo.Database) store.Stores {
	return store.Stores{
		Menus:         NewMenuStore(client, db.Collection(store.MenusCollection), store.MenuRetention),
		FallbackMenus: NewMenuStore(client, db.Collection(store.FallbackMenusCollection), store.FallbackRetention),
		Categories:    &CategoryStore{coll: db.Collection(store.CategoriesCollection)},
		Events:        &EventStore{coll: db.Collection(eventsCollection)},
		Messages:      &MessageStore{coll: db.Collection(messagesCollection)},
		Applications:  &ApplicationStore{coll: db.Collection(applicationsCollection)},
	}
}
