package catalog

import (
	"context"
	"sync"

	"taproom-services/internal/square"
)

const (
	testBar     = "LOC-BAR"
	testKitchen = "LOC-KITCHEN"

	catDraft  = "cat-draft"
	catWine   = "cat-wine"
	catCanned = "cat-canned"
	catIPA    = "cat-ipa"
	catLager  = "cat-lager"
)

type itemSpec struct {
	id         string
	name       string
	categories []string
	locations  []string
	price      int64
	bottle     int64
	attrs      map[string]string
	varAttrs   map[string]string
}

func categoryObject(id, name string) square.CatalogObject {
	return square.CatalogObject{
		Type:         square.ObjectTypeCategory,
		ID:           id,
		CategoryData: &square.CategoryData{Name: name, CategoryType: square.CategoryTypeRegular},
	}
}

func customAttributes(values map[string]string) map[string]square.CustomAttributeValue {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]square.CustomAttributeValue, len(values))
	for name, value := range values {
		v := value
		out["Square:"+name] = square.CustomAttributeValue{Name: name, Type: "STRING", StringValue: &v}
	}
	return out
}

func variationID(itemID string) string { return "var-" + itemID }

func itemObject(s itemSpec) square.CatalogObject {
	locations := s.locations
	if locations == nil {
		locations = []string{testBar}
	}
	refs := make([]square.CategoryRef, 0, len(s.categories))
	for _, id := range s.categories {
		refs = append(refs, square.CategoryRef{ID: id})
	}

	variations := []square.CatalogObject{{
		Type: square.ObjectTypeItemVariation,
		ID:   variationID(s.id),
		ItemVariationData: &square.ItemVariationData{
			ItemID:     s.id,
			Name:       "Pint",
			PriceMoney: &square.Money{Amount: s.price, Currency: "USD"},
		},
		CustomAttributeValues: customAttributes(s.varAttrs),
	}}
	if s.bottle > 0 {
		variations = append(variations, square.CatalogObject{
			Type: square.ObjectTypeItemVariation,
			ID:   variationID(s.id) + "-bottle",
			ItemVariationData: &square.ItemVariationData{
				ItemID:     s.id,
				Name:       "Bottle",
				PriceMoney: &square.Money{Amount: s.bottle, Currency: "USD"},
			},
		})
	}

	return square.CatalogObject{
		Type:                  square.ObjectTypeItem,
		ID:                    s.id,
		PresentAtLocationIDs:  locations,
		CustomAttributeValues: customAttributes(s.attrs),
		ItemData: &square.ItemData{
			Name:       s.name,
			Categories: refs,
			Variations: variations,
		},
	}
}

func strPtr(s string) *string { return &s }

func testExpected() ExpectedCategories {
	return ExpectedCategories{
		ParentCategories: []string{"Draft", "Canned / Bottled", "Wine"},
		ChildCategories:  []string{"Lager", "IPA"},
		ParentName:       strPtr("Canned / Bottled"),
	}
}

func testRules() Rules {
	return Rules{
		BarLocationID:   testBar,
		CannedBottledID: catCanned,
		ExcludedItems:   []string{"Kevin's Pale Ale"},
	}
}

// testCatalog returns categories in an order unlike the display order so
// ordering is exercised.
func testCatalog() []square.CatalogObject {
	return []square.CatalogObject{
		categoryObject(catWine, "Wine"),
		categoryObject(catIPA, "IPA"),
		categoryObject(catDraft, "Draft"),
		categoryObject(catLager, "Lager"),
		categoryObject(catCanned, "Canned / Bottled"),
		categoryObject("cat-food", "Food"),
		itemObject(itemSpec{id: "d1", name: "Sierra Nevada - Pale Ale", categories: []string{catDraft}, price: 700, attrs: map[string]string{"ABV": "5.6%", "City": "Chico, CA"}}),
		itemObject(itemSpec{id: "d2", name: "Allagash - White", categories: []string{catDraft}, price: 800}),
		itemObject(itemSpec{id: "d3", name: "sierra nevada - Torpedo", categories: []string{catDraft}, price: 750}),
		itemObject(itemSpec{id: "d4", name: "Warm Keg - Flat Stout", categories: []string{catDraft}, price: 650}),
		itemObject(itemSpec{id: "d5", name: "Elsewhere - Kitchen Cider", categories: []string{catDraft}, locations: []string{testKitchen}, price: 600}),
		itemObject(itemSpec{id: "w1", name: "Malbec", categories: []string{catWine}, price: 1100, attrs: map[string]string{"Varieties": "Malbec"}}),
		itemObject(itemSpec{id: "c1", name: "Founders - All Day IPA", categories: []string{catCanned, catIPA}, price: 500, bottle: 600}),
		itemObject(itemSpec{id: "c2", name: "Bell's - Two Hearted", categories: []string{catCanned, catIPA}, price: 550}),
		itemObject(itemSpec{id: "c3", name: "Pilsner Urquell - Pilsner", categories: []string{catCanned, catLager}, price: 450}),
		itemObject(itemSpec{id: "c4", name: "Kevin's Pale Ale", categories: []string{catCanned, catIPA}, price: 500}),
		itemObject(itemSpec{id: "x1", name: "Loose - Lager Can", categories: []string{catLager}, price: 400}),
	}
}

func testCounts() map[string]float64 {
	return map[string]float64{
		variationID("d1"): 20,
		variationID("d2"): 3,
		variationID("d3"): 1,
		variationID("d5"): 9,
		variationID("w1"): 12,
		variationID("c1"): 24,
		variationID("c2"): 6,
		variationID("c3"): 2,
		variationID("c4"): 10,
		variationID("x1"): 4,
	}
}

type fakeSource struct {
	mu             sync.Mutex
	objects        []square.CatalogObject
	counts         map[string]float64
	listErr        error
	countsErr      error
	listCalls      int
	inventoryCalls int
	requestedIDs   []string
}

func (f *fakeSource) ListCatalog(ctx context.Context, types ...string) ([]square.CatalogObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.objects, nil
}

func (f *fakeSource) InventoryCounts(ctx context.Context, locationID string, objectIDs []string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inventoryCalls++
	f.requestedIDs = append([]string{}, objectIDs...)
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts, nil
}
