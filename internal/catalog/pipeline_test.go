package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"taproom-services/internal/square"

	"github.com/google/go-cmp/cmp"
)

func TestPipelineRunIsIdempotent(t *testing.T) {
	source := &fakeSource{objects: testCatalog(), counts: testCounts()}
	p := Pipeline{Source: source, Rules: testRules()}

	first, err := p.Run(context.Background(), testExpected())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Run(context.Background(), testExpected())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a, err := json.Marshal(first.Menu)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, err := json.Marshal(second.Menu)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical output\nfirst:  %s\nsecond: %s", a, b)
	}
	if !first.Valid || first.ItemCount != 11 || first.ShownCount != 7 {
		t.Fatalf("unexpected result summary: valid=%v items=%d shown=%d", first.Valid, first.ItemCount, first.ShownCount)
	}
}

func TestPipelineRunMenuProperties(t *testing.T) {
	source := &fakeSource{objects: testCatalog(), counts: testCounts()}
	rules := testRules()
	result, err := Pipeline{Source: source, Rules: rules}.Run(context.Background(), testExpected())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"Draft", "Canned / Bottled", "Wine"}, result.Menu.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}

	for _, item := range result.Menu.Items() {
		if !item.InStock {
			t.Fatalf("item %s shown while out of stock", item.ID)
		}
		if !containsString(item.LocationIDs, rules.BarLocationID) {
			t.Fatalf("item %s shown while not at the bar", item.ID)
		}
		if item.Name == "Kevin's Pale Ale" {
			t.Fatalf("excluded item shown")
		}
	}

	for _, section := range result.Menu.Sections {
		if section.Category != nil {
			for _, item := range section.Category.Items {
				if containsString(item.CategoryIDs, rules.CannedBottledID) {
					t.Fatalf("packaged item %s in nesting parent items", item.ID)
				}
			}
			for _, child := range section.Category.ChildCategories {
				for _, item := range child.Items {
					if !containsString(item.CategoryIDs, rules.CannedBottledID) {
						t.Fatalf("loose item %s in child %s", item.ID, child.Name)
					}
				}
			}
			continue
		}
		for i, item := range section.Items {
			if containsString(item.CategoryIDs, rules.CannedBottledID) {
				t.Fatalf("packaged item %s in parent %s", item.ID, section.Name)
			}
			if i > 0 && strings.ToLower(section.Items[i-1].Brand) > strings.ToLower(item.Brand) {
				t.Fatalf("section %s not sorted by brand", section.Name)
			}
		}
	}
}

func TestPipelineRunCategoryMismatch(t *testing.T) {
	objects := []square.CatalogObject{categoryObject(catDraft, "Draft"), categoryObject(catWine, "Wine")}
	source := &fakeSource{objects: objects, counts: testCounts()}
	expected := ExpectedCategories{ParentCategories: []string{"Draft", "Wine"}, ChildCategories: []string{"IPA"}}

	result, err := Pipeline{Source: source, Rules: testRules()}.Run(context.Background(), expected)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Valid {
		t.Fatalf("expected invalid result")
	}
	if diff := cmp.Diff([]string{"IPA"}, result.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if len(result.Menu.Sections) != 0 {
		t.Fatalf("expected no menu on mismatch")
	}
	if source.inventoryCalls != 0 {
		t.Fatalf("expected inventory not to be fetched, got %d calls", source.inventoryCalls)
	}
}

func TestPipelineRunPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name   string
		source *fakeSource
	}{
		{name: "catalog", source: &fakeSource{listErr: boom}},
		{name: "inventory", source: &fakeSource{objects: testCatalog(), countsErr: boom}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Pipeline{Source: tc.source, Rules: testRules()}.Run(context.Background(), testExpected())
			if !errors.Is(err, boom) {
				t.Fatalf("expected wrapped boom, got %v", err)
			}
		})
	}
}

func TestPipelineRunRequestsVariationIDs(t *testing.T) {
	source := &fakeSource{objects: testCatalog(), counts: testCounts()}
	if _, err := (Pipeline{Source: source, Rules: testRules()}).Run(context.Background(), testExpected()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(VariationIDs(testCatalog()), source.requestedIDs); diff != "" {
		t.Fatalf("requested ids mismatch (-want +got):\n%s", diff)
	}
}

func TestPipelineRunNilSource(t *testing.T) {
	if _, err := (Pipeline{}).Run(context.Background(), testExpected()); err == nil {
		t.Fatal("expected error")
	}
}
