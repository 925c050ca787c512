package catalog

import (
	"sort"
	"strings"
)

// BuildMenu lays the assigned buckets out in display order. The nesting
// category becomes a CategoryWithItems holding every child bucket; other
// parents hold their own items sorted by brand.
func BuildMenu(parents, children []Bucket, expected ExpectedCategories, rules Rules) MenuStructure {
	expected = expected.Trimmed()
	nested := NestedCategoryName(expected, rules)

	order := rules.CategoryOrder
	if len(order) == 0 {
		order = expected.ParentCategories
	}

	byName := make(map[string]Bucket, len(parents))
	for _, b := range parents {
		if _, ok := byName[b.Name]; !ok {
			byName[b.Name] = b
		}
	}

	var menu MenuStructure
	placed := make(map[string]struct{}, len(order))
	for _, name := range order {
		name = strings.TrimSpace(name)
		if _, ok := placed[name]; ok {
			continue
		}
		bucket, ok := byName[name]
		if !ok {
			continue
		}
		placed[name] = struct{}{}

		section := MenuSection{Name: name}
		if name == nested {
			section.Category = &CategoryWithItems{
				ID:              bucket.ID,
				Name:            bucket.Name,
				Items:           sortByBrand(bucket.Items),
				ChildCategories: orderChildren(children, expected.ChildCategories),
			}
		} else {
			section.Items = sortByBrand(bucket.Items)
		}
		menu.Sections = append(menu.Sections, section)
	}
	return menu
}

// NestedCategoryName returns the parent category that nests child buckets.
func NestedCategoryName(expected ExpectedCategories, rules Rules) string {
	if expected.ParentName != nil && strings.TrimSpace(*expected.ParentName) != "" {
		return strings.TrimSpace(*expected.ParentName)
	}
	if strings.TrimSpace(rules.NestedCategory) != "" {
		return strings.TrimSpace(rules.NestedCategory)
	}
	return DefaultNestedCategory
}

// orderChildren sorts child buckets by their position in order. Names not in
// the list sort first and keep their catalog order.
func orderChildren(children []Bucket, order []string) []CategoryWithItems {
	index := make(map[string]int, len(order))
	for i, name := range order {
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	position := func(name string) int {
		if i, ok := index[name]; ok {
			return i
		}
		return -1
	}

	out := make([]CategoryWithItems, 0, len(children))
	for _, b := range children {
		out = append(out, CategoryWithItems{
			ID:              b.ID,
			Name:            b.Name,
			Items:           sortByBrand(b.Items),
			ChildCategories: []CategoryWithItems{},
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return position(out[i].Name) < position(out[j].Name)
	})
	return out
}

func sortByBrand(items []ProcessedItem) []ProcessedItem {
	out := append(make([]ProcessedItem, 0, len(items)), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Brand) < strings.ToLower(out[j].Brand)
	})
	return out
}
