package catalog

import (
	"context"
	"errors"
	"fmt"

	"taproom-services/internal/square"
)

// Source is the part of the Square client the pipeline reads from.
type Source interface {
	ListCatalog(ctx context.Context, types ...string) ([]square.CatalogObject, error)
	InventoryCounts(ctx context.Context, locationID string, objectIDs []string) (map[string]float64, error)
}

type Pipeline struct {
	Source Source
	Rules  Rules
}

// Result is the outcome of one run. When Valid is false the catalog's
// categories drifted from the config; Missing names what was not found and
// Menu is empty.
type Result struct {
	Menu       MenuStructure
	Valid      bool
	Missing    []string
	ItemCount  int
	ShownCount int
}

// Run fetches the catalog, validates its taxonomy and builds the menu. All
// state lives in the call, so concurrent runs do not interfere.
func (p Pipeline) Run(ctx context.Context, expected ExpectedCategories) (Result, error) {
	if p.Source == nil {
		return Result{}, errors.New("catalog source is nil")
	}

	objects, err := p.Source.ListCatalog(ctx, square.ObjectTypeItem, square.ObjectTypeCategory, square.ObjectTypeItemVariation)
	if err != nil {
		return Result{}, fmt.Errorf("fetch catalog: %w", err)
	}

	if missing := MissingCategories(objects, expected); len(missing) > 0 {
		return Result{Missing: missing}, nil
	}

	counts, err := p.Source.InventoryCounts(ctx, p.Rules.BarLocationID, VariationIDs(objects))
	if err != nil {
		return Result{}, fmt.Errorf("fetch inventory: %w", err)
	}

	items := ProcessItems(objects, counts, p.Rules)
	parents, children := CategoryBuckets(objects, expected)
	parents, children = AssignCategories(items, parents, children, p.Rules)
	menu := BuildMenu(parents, children, expected, p.Rules)

	return Result{
		Menu:       menu,
		Valid:      true,
		ItemCount:  len(items),
		ShownCount: len(menu.Items()),
	}, nil
}
