package catalog

import (
	"sort"
	"strings"

	"taproom-services/internal/square"
)

// ValidateCategories reports whether the Square catalog contains exactly the
// configured parent and child category names. Order does not matter.
func ValidateCategories(objects []square.CatalogObject, expected ExpectedCategories) bool {
	return len(MissingCategories(objects, expected)) == 0
}

// MissingCategories returns configured category names with no matching
// regular category in the catalog, sorted.
func MissingCategories(objects []square.CatalogObject, expected ExpectedCategories) []string {
	want := make(map[string]struct{})
	for _, name := range expected.Trimmed().Names() {
		want[name] = struct{}{}
	}

	found := make(map[string]struct{}, len(want))
	for _, obj := range objects {
		if obj.IsDeleted || !obj.IsRegularCategory() {
			continue
		}
		name := strings.TrimSpace(obj.CategoryData.Name)
		if _, ok := want[name]; ok {
			found[name] = struct{}{}
		}
	}

	var missing []string
	for name := range want {
		if _, ok := found[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
