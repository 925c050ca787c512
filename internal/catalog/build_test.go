package catalog

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func processedByID(items []ProcessedItem) map[string]ProcessedItem {
	out := make(map[string]ProcessedItem, len(items))
	for _, item := range items {
		out[item.ID] = item
	}
	return out
}

func buildTestMenu(rules Rules) (MenuStructure, map[string]ProcessedItem) {
	objects := testCatalog()
	expected := testExpected()
	items := ProcessItems(objects, testCounts(), rules)
	parents, children := CategoryBuckets(objects, expected)
	parents, children = AssignCategories(items, parents, children, rules)
	return BuildMenu(parents, children, expected, rules), processedByID(items)
}

func TestBuildMenuLayout(t *testing.T) {
	menu, byID := buildTestMenu(testRules())

	want := MenuStructure{Sections: []MenuSection{
		{Name: "Draft", Items: []ProcessedItem{byID["d2"], byID["d1"], byID["d3"]}},
		{Name: "Canned / Bottled", Category: &CategoryWithItems{
			ID:    catCanned,
			Name:  "Canned / Bottled",
			Items: []ProcessedItem{},
			ChildCategories: []CategoryWithItems{
				{ID: catLager, Name: "Lager", Items: []ProcessedItem{byID["c3"]}, ChildCategories: []CategoryWithItems{}},
				{ID: catIPA, Name: "IPA", Items: []ProcessedItem{byID["c2"], byID["c1"]}, ChildCategories: []CategoryWithItems{}},
			},
		}},
		{Name: "Wine", Items: []ProcessedItem{byID["w1"]}},
	}}

	if diff := cmp.Diff(want, menu, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("menu mismatch (-want +got):\n%s", diff)
	}
}

func TestPaddedCategoryNamesStillGetBuckets(t *testing.T) {
	rules := testRules()
	objects := testCatalog()
	items := ProcessItems(objects, testCounts(), rules)

	build := func(expected ExpectedCategories) MenuStructure {
		parents, children := CategoryBuckets(objects, expected)
		parents, children = AssignCategories(items, parents, children, rules)
		return BuildMenu(parents, children, expected, rules)
	}

	clean := testExpected()
	padded := ExpectedCategories{}
	for _, name := range clean.ParentCategories {
		padded.ParentCategories = append(padded.ParentCategories, " "+name+" ")
	}
	for _, name := range clean.ChildCategories {
		padded.ChildCategories = append(padded.ChildCategories, name+"  ")
	}
	if clean.ParentName != nil {
		padded.ParentName = strPtr(" " + *clean.ParentName)
	}

	if missing := MissingCategories(objects, padded); len(missing) != 0 {
		t.Fatalf("padded config reported missing %v", missing)
	}
	if diff := cmp.Diff(build(clean), build(padded), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("padded config built a different menu (-want +got):\n%s", diff)
	}
}

func TestBuildMenuKeysFollowCategoryOrder(t *testing.T) {
	rules := testRules()
	rules.CategoryOrder = []string{"Wine", "Specials", "Draft", "Wine", "Canned / Bottled"}

	menu, _ := buildTestMenu(rules)
	if diff := cmp.Diff([]string{"Wine", "Draft", "Canned / Bottled"}, menu.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMenuKeepsBucketWithNoItems(t *testing.T) {
	rules := testRules()
	counts := testCounts()
	delete(counts, variationID("w1"))

	objects := testCatalog()
	expected := testExpected()
	items := ProcessItems(objects, counts, rules)
	parents, children := CategoryBuckets(objects, expected)
	parents, children = AssignCategories(items, parents, children, rules)
	menu := BuildMenu(parents, children, expected, rules)

	section, ok := menu.Section("Wine")
	if !ok {
		t.Fatalf("expected Wine section to remain, keys %v", menu.Keys())
	}
	if section.Items == nil || len(section.Items) != 0 {
		t.Fatalf("expected empty non-nil items, got %#v", section.Items)
	}
}

func TestSortByBrandIsStableAndCaseInsensitive(t *testing.T) {
	items := []ProcessedItem{
		{ID: "1", Brand: "Sierra Nevada"},
		{ID: "2", Brand: "allagash"},
		{ID: "3", Brand: "sierra nevada"},
		{ID: "4", Brand: ""},
		{ID: "5", Brand: "SIERRA NEVADA"},
		{ID: "6", Brand: ""},
		{ID: "7", Brand: "Bell's"},
	}

	got := sortByBrand(items)
	var ids []string
	for _, item := range got {
		ids = append(ids, item.ID)
	}
	if diff := cmp.Diff([]string{"4", "6", "2", "7", "1", "3", "5"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if strings.ToLower(got[i-1].Brand) > strings.ToLower(got[i].Brand) {
			t.Fatalf("brands out of order at %d: %q > %q", i, got[i-1].Brand, got[i].Brand)
		}
	}
	if items[0].ID != "1" || items[1].ID != "2" {
		t.Fatalf("input slice was reordered")
	}
}

func TestOrderChildrenUnknownFirst(t *testing.T) {
	children := []Bucket{
		{ID: "a", Name: "IPA"},
		{ID: "b", Name: "Seltzer"},
		{ID: "c", Name: "Lager"},
		{ID: "d", Name: "Cider"},
	}
	got := orderChildren(children, []string{"Lager", "IPA"})

	var names []string
	for _, c := range got {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"Seltzer", "Cider", "Lager", "IPA"}, names); diff != "" {
		t.Fatalf("child order mismatch (-want +got):\n%s", diff)
	}
}

func TestNestedCategoryName(t *testing.T) {
	cases := []struct {
		name     string
		expected ExpectedCategories
		rules    Rules
		want     string
	}{
		{name: "config parent name", expected: ExpectedCategories{ParentName: strPtr("Cans")}, rules: Rules{NestedCategory: "Bottles"}, want: "Cans"},
		{name: "rule fallback", expected: ExpectedCategories{ParentName: strPtr(" ")}, rules: Rules{NestedCategory: "Bottles"}, want: "Bottles"},
		{name: "default", want: DefaultNestedCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NestedCategoryName(tc.expected, tc.rules); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestAssignCategoriesRouting(t *testing.T) {
	parents := []Bucket{{ID: catDraft, Name: "Draft"}, {ID: catCanned, Name: "Canned / Bottled"}, {ID: catWine, Name: "Wine"}}
	children := []Bucket{{ID: catIPA, Name: "IPA"}, {ID: catLager, Name: "Lager"}}

	base := func(id string, categories ...string) ProcessedItem {
		return ProcessedItem{ID: id, Name: "Beer " + id, CategoryIDs: categories, LocationIDs: []string{testBar}, InStock: true}
	}
	outOfStock := base("oos", catDraft)
	outOfStock.InStock = false
	kitchen := base("kitchen", catDraft)
	kitchen.LocationIDs = []string{testKitchen}
	kevin := base("kevin", catCanned, catIPA)
	kevin.Name = "Kevin's Pale Ale"
	branded := base("branded", catDraft)
	branded.Brand, branded.Name = "Kevin's", "Pale Ale"
	exception := base("exception", catIPA)
	exception.Name = "Guest Tap"

	items := []ProcessedItem{
		base("draft", catDraft),
		base("both", catDraft, catWine),
		base("packaged", catCanned, catIPA),
		base("packaged-two", catCanned, catIPA, catLager),
		base("loose-child", catLager),
		outOfStock,
		kitchen,
		kevin,
		branded,
		exception,
	}

	cases := []struct {
		name         string
		rules        Rules
		wantParents  map[string][]string
		wantChildren map[string][]string
	}{
		{
			name:  "excluded named item",
			rules: Rules{BarLocationID: testBar, CannedBottledID: catCanned, ExcludedItems: []string{"kevin's pale ale"}},
			wantParents: map[string][]string{
				"Draft": {"draft", "both", "branded"},
				"Wine":  {"both"},
			},
			wantChildren: map[string][]string{
				"IPA":   {"packaged", "packaged-two"},
				"Lager": {"packaged-two"},
			},
		},
		{
			name:  "child exception item",
			rules: Rules{BarLocationID: testBar, CannedBottledID: catCanned, ChildExceptionItems: []string{"Guest Tap"}},
			wantParents: map[string][]string{
				"Draft": {"draft", "both", "branded"},
				"Wine":  {"both"},
			},
			wantChildren: map[string][]string{
				"IPA":   {"packaged", "packaged-two", "kevin", "exception"},
				"Lager": {"packaged-two"},
			},
		},
		{
			name:  "no bar location configured shows nothing",
			rules: Rules{CannedBottledID: catCanned},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotParents, gotChildren := AssignCategories(items, parents, children, tc.rules)
			if diff := cmp.Diff(tc.wantParents, bucketIDs(gotParents), cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("parents mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantChildren, bucketIDs(gotChildren), cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("children mismatch (-want +got):\n%s", diff)
			}
		})
	}

	for _, b := range parents {
		if len(b.Items) != 0 {
			t.Fatalf("input bucket %s was modified", b.Name)
		}
	}
}

func TestAssignCategoriesExcludesFullName(t *testing.T) {
	parents := []Bucket{{ID: catDraft, Name: "Draft"}}
	item := ProcessedItem{ID: "k", Brand: "Kevin's", Name: "Pale Ale", CategoryIDs: []string{catDraft}, LocationIDs: []string{testBar}, InStock: true}

	got, _ := AssignCategories([]ProcessedItem{item}, parents, nil, Rules{BarLocationID: testBar, ExcludedItems: []string{"Kevin's - Pale Ale"}})
	if len(got[0].Items) != 0 {
		t.Fatalf("expected full-name exclusion, got %+v", got[0].Items)
	}
}

func TestCategoryBucketsFirstNameWins(t *testing.T) {
	objects := testCatalog()
	objects = append(objects, categoryObject("cat-draft-2", "Draft"))

	parents, children := CategoryBuckets(objects, testExpected())
	if len(parents) != 3 || len(children) != 2 {
		t.Fatalf("expected 3 parents and 2 children, got %d and %d", len(parents), len(children))
	}
	for _, b := range parents {
		if b.Name == "Draft" && b.ID != catDraft {
			t.Fatalf("expected first Draft bucket, got %s", b.ID)
		}
	}
}

func bucketIDs(buckets []Bucket) map[string][]string {
	out := make(map[string][]string)
	for _, b := range buckets {
		if len(b.Items) == 0 {
			continue
		}
		for _, item := range b.Items {
			out[b.Name] = append(out[b.Name], item.ID)
		}
	}
	return out
}
