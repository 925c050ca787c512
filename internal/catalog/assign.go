package catalog

import (
	"strings"

	"taproom-services/internal/square"
)

// CategoryBuckets creates empty parent and child buckets for the configured
// categories found in the catalog. When Square has two categories with the
// same name the first one fetched is used.
func CategoryBuckets(objects []square.CatalogObject, expected ExpectedCategories) (parents, children []Bucket) {
	expected = expected.Trimmed()
	seen := make(map[string]struct{})
	for _, obj := range objects {
		if obj.IsDeleted || !obj.IsRegularCategory() {
			continue
		}
		name := strings.TrimSpace(obj.CategoryData.Name)
		if _, ok := seen[name]; ok {
			continue
		}
		bucket := Bucket{ID: obj.ID, Name: name, Items: []ProcessedItem{}}
		switch {
		case containsString(expected.ParentCategories, name):
			parents = append(parents, bucket)
		case containsString(expected.ChildCategories, name):
			children = append(children, bucket)
		default:
			continue
		}
		seen[name] = struct{}{}
	}
	return parents, children
}

// AssignCategories routes items into copies of the given buckets. An item is
// considered only when it is stocked at the bar location and not excluded.
// Packaged beer goes to child buckets only; everything else to parent buckets.
func AssignCategories(items []ProcessedItem, parents, children []Bucket, rules Rules) ([]Bucket, []Bucket) {
	outParents := cloneBuckets(parents)
	outChildren := cloneBuckets(children)

	for _, item := range items {
		if !containsString(item.LocationIDs, rules.BarLocationID) || !item.InStock {
			continue
		}
		if matchesItemName(item, rules.ExcludedItems) {
			continue
		}

		packaged := rules.CannedBottledID != "" && containsString(item.CategoryIDs, rules.CannedBottledID)
		childEligible := packaged || matchesItemName(item, rules.ChildExceptionItems)

		if childEligible {
			for i := range outChildren {
				if containsString(item.CategoryIDs, outChildren[i].ID) {
					outChildren[i].Items = append(outChildren[i].Items, item)
				}
			}
		}
		if !packaged {
			for i := range outParents {
				if containsString(item.CategoryIDs, outParents[i].ID) {
					outParents[i].Items = append(outParents[i].Items, item)
				}
			}
		}
	}
	return outParents, outChildren
}

func cloneBuckets(in []Bucket) []Bucket {
	out := make([]Bucket, len(in))
	for i, b := range in {
		out[i] = Bucket{ID: b.ID, Name: b.Name, Items: append([]ProcessedItem{}, b.Items...)}
	}
	return out
}

// matchesItemName compares case-insensitively against the display name and
// the full "Brand - Name" form.
func matchesItemName(item ProcessedItem, names []string) bool {
	if len(names) == 0 {
		return false
	}
	full := item.Name
	if item.Brand != "" {
		full = item.Brand + nameSeparator + item.Name
	}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, item.Name) || strings.EqualFold(name, full) {
			return true
		}
	}
	return false
}
