package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MenuStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	retain int
}

func NewMenuStore(client *mongo.Client, coll *mongo.Collection, retain int) *MenuStore {
	if retain < 1 {
		retain = 1
	}
	return &MenuStore{client: client, coll: coll, retain: retain}
}

// menuWriteDocument stores the menu as an ordered document.
type menuWriteDocument struct {
	ID        string    `bson:"_id"`
	Menu      bson.D    `bson:"menu"`
	Version   int64     `bson:"version"`
	IsLatest  bool      `bson:"isLatest"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type menuReadDocument struct {
	ID        string    `bson:"_id"`
	Menu      bson.Raw  `bson:"menu"`
	Version   int64     `bson:"version"`
	IsLatest  bool      `bson:"isLatest"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Publish prunes old records, demotes the current latest and inserts menu as
// the new latest. A record promoted concurrently by Latest makes the insert
// hit the unique latest index; the transaction is then run once more.
func (s *MenuStore) Publish(ctx context.Context, menu catalog.MenuStructure) (store.MenuRecord, error) {
	doc, err := menuToDocument(menu)
	if err != nil {
		return store.MenuRecord{}, err
	}
	record, err := s.publish(ctx, menu, doc)
	if mongo.IsDuplicateKeyError(err) {
		record, err = s.publish(ctx, menu, doc)
	}
	if err != nil {
		return store.MenuRecord{}, fmt.Errorf("publish %s: %w", s.coll.Name(), err)
	}
	return record, nil
}

func (s *MenuStore) publish(ctx context.Context, menu catalog.MenuStructure, doc bson.D) (store.MenuRecord, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return store.MenuRecord{}, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		findOpts := options.Find().
			SetSort(bson.D{{Key: "isLatest", Value: -1}, {Key: "createdAt", Value: -1}}).
			SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "version", Value: 1}})
		cursor, err := s.coll.Find(sc, bson.D{}, findOpts)
		if err != nil {
			return nil, err
		}
		var existing []struct {
			ID      string `bson:"_id"`
			Version int64  `bson:"version"`
		}
		if err := cursor.All(sc, &existing); err != nil {
			return nil, err
		}

		var version int64
		for _, e := range existing {
			if e.Version > version {
				version = e.Version
			}
		}

		if keep := s.retain - 1; len(existing) > keep {
			drop := make([]string, 0, len(existing)-keep)
			for _, e := range existing[keep:] {
				drop = append(drop, e.ID)
			}
			if _, err := s.coll.DeleteMany(sc, bson.M{"_id": bson.M{"$in": drop}}); err != nil {
				return nil, err
			}
		}

		now := time.Now().UTC().Truncate(time.Millisecond)
		if _, err := s.coll.UpdateMany(sc,
			bson.M{"isLatest": true},
			bson.M{"$set": bson.M{"isLatest": false, "updatedAt": now}},
		); err != nil {
			return nil, err
		}

		write := menuWriteDocument{
			ID:        uuid.NewString(),
			Menu:      doc,
			Version:   version + 1,
			IsLatest:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, err := s.coll.InsertOne(sc, write); err != nil {
			return nil, err
		}
		return store.MenuRecord{
			ID:        write.ID,
			Menu:      menu,
			Version:   write.Version,
			IsLatest:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	})
	if err != nil {
		return store.MenuRecord{}, err
	}
	return result.(store.MenuRecord), nil
}

// Latest returns the latest record, promoting the newest one when none is
// flagged.
func (s *MenuStore) Latest(ctx context.Context) (store.MenuRecord, error) {
	record, err := s.findLatest(ctx)
	if !errors.Is(err, store.ErrNotFound) {
		return record, err
	}

	record, err = s.promoteNewest(ctx)
	if mongo.IsDuplicateKeyError(err) {
		// another caller promoted or published first
		return s.findLatest(ctx)
	}
	return record, err
}

func (s *MenuStore) findLatest(ctx context.Context) (store.MenuRecord, error) {
	var doc menuReadDocument
	err := s.coll.FindOne(ctx, bson.M{"isLatest": true}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.MenuRecord{}, store.ErrNotFound
	}
	if err != nil {
		return store.MenuRecord{}, err
	}
	return doc.record()
}

func (s *MenuStore) promoteNewest(ctx context.Context) (store.MenuRecord, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return store.MenuRecord{}, fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	result, err := sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var newest menuReadDocument
		opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		if err := s.coll.FindOne(sc, bson.M{}, opts).Decode(&newest); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, store.ErrNotFound
			}
			return nil, err
		}
		now := time.Now().UTC().Truncate(time.Millisecond)
		if _, err := s.coll.UpdateOne(sc,
			bson.M{"_id": newest.ID},
			bson.M{"$set": bson.M{"isLatest": true, "updatedAt": now}},
		); err != nil {
			return nil, err
		}
		newest.IsLatest = true
		newest.UpdatedAt = now
		return newest.record()
	})
	if err != nil {
		return store.MenuRecord{}, err
	}
	return result.(store.MenuRecord), nil
}

func (d menuReadDocument) record() (store.MenuRecord, error) {
	menu, err := menuFromDocument(d.Menu)
	if err != nil {
		return store.MenuRecord{}, err
	}
	return store.MenuRecord{
		ID:        d.ID,
		Menu:      menu,
		Version:   d.Version,
		IsLatest:  d.IsLatest,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

// menuToDocument converts the menu through its JSON form so section order is
// kept as document key order.
func menuToDocument(menu catalog.MenuStructure) (bson.D, error) {
	raw, err := json.Marshal(menu)
	if err != nil {
		return nil, fmt.Errorf("encode menu: %w", err)
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, fmt.Errorf("convert menu: %w", err)
	}
	return doc, nil
}

func menuFromDocument(raw bson.Raw) (catalog.MenuStructure, error) {
	var menu catalog.MenuStructure
	if len(raw) == 0 {
		return menu, nil
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return menu, fmt.Errorf("convert menu: %w", err)
	}
	if err := json.Unmarshal(data, &menu); err != nil {
		return menu, fmt.Errorf("decode menu: %w", err)
	}
	return menu, nil
}
