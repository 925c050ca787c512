package postgres

import (
	"context"
	"errors"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expectedCategoriesID = "expected"

type CategoryStore struct {
	pool *pgxpool.Pool
}

func (s *CategoryStore) Get(ctx context.Context) (catalog.ExpectedCategories, error) {
	var (
		out        catalog.ExpectedCategories
		parentName pgtype.Text
	)
	err := s.pool.QueryRow(ctx, `
		select parent_categories, child_categories, parent_name
		from categories where id = $1
	`, expectedCategoriesID).Scan(&out.ParentCategories, &out.ChildCategories, &parentName)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.ExpectedCategories{}, store.ErrNotFound
	}
	if err != nil {
		return catalog.ExpectedCategories{}, err
	}
	if parentName.Valid {
		out.ParentName = &parentName.String
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
	parents := expected.ParentCategories
	if parents == nil {
		parents = []string{}
	}
	children := expected.ChildCategories
	if children == nil {
		children = []string{}
	}
	_, err := s.pool.Exec(ctx, `
		insert into categories (id, parent_categories, child_categories, parent_name, updated_at)
		values ($1, $2, $3, $4, now())
		on conflict (id) do update set
			parent_categories = excluded.parent_categories,
			child_categories = excluded.child_categories,
			parent_name = excluded.parent_name,
			updated_at = now()
	`, expectedCategoriesID, parents, children, expected.ParentName)
	return err
}
