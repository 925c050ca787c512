package mongodb

import (
	"context"
	"errors"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const expectedCategoriesID = "expected"

type CategoryStore struct {
	coll *mongo.Collection
}

type categoriesDocument struct {
	ID               string    `bson:"_id"`
	ParentCategories []string  `bson:"parentCategories"`
	ChildCategories  []string  `bson:"childCategories"`
	ParentName       *string   `bson:"parentName"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

func (s *CategoryStore) Get(ctx context.Context) (catalog.ExpectedCategories, error) {
	var doc categoriesDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": expectedCategoriesID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.ExpectedCategories{}, store.ErrNotFound
	}
	if err != nil {
		return catalog.ExpectedCategories{}, err
	}
	out := catalog.ExpectedCategories{
		ParentCategories: doc.ParentCategories,
		ChildCategories:  doc.ChildCategories,
		ParentName:       doc.ParentName,
	}
	if out.ParentCategories == nil {
		out.ParentCategories = []string{}
	}
	if out.ChildCategories == nil {
		out.ChildCategories = []string{}
	}
	return out, nil
}

func (s *CategoryStore) Put(ctx context.Context, expected catalog.ExpectedCategories) error {
	doc := categoriesDocument{
		ID:               expectedCategoriesID,
		ParentCategories: expected.ParentCategories,
		ChildCategories:  expected.ChildCategories,
		ParentName:       expected.ParentName,
		UpdatedAt:        time.Now().UTC(),
	}
	if doc.ParentCategories == nil {
		doc.ParentCategories = []string{}
	}
	if doc.ChildCategories == nil {
		doc.ChildCategories = []string{}
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": expectedCategoriesID}, doc, options.Replace().SetUpsert(true))
	return err
}
