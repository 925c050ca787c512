package catalog

import (
	"fmt"
	"sort"
	"strings"

	"taproom-services/internal/square"
)

const (
	nameSeparator = " - "

	attrABV       = "ABV"
	attrCity      = "City"
	attrVarieties = "Varieties"

	bottleVariationName = "Bottle"
)

// ItemName returns the display name from a Square item name written as
// "Brand - Name". Names without a brand are returned whole.
func ItemName(full string) string {
	full = strings.TrimSpace(full)
	if idx := strings.Index(full, nameSeparator); idx >= 0 {
		return strings.TrimSpace(full[idx+len(nameSeparator):])
	}
	return full
}

// ItemBrand returns the brand half of "Brand - Name", or "".
func ItemBrand(full string) string {
	full = strings.TrimSpace(full)
	if idx := strings.Index(full, nameSeparator); idx >= 0 {
		return strings.TrimSpace(full[:idx])
	}
	return ""
}

// VariationIDs lists every variation id of every live item, in catalog order.
func VariationIDs(objects []square.CatalogObject) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, obj := range objects {
		if obj.Type != square.ObjectTypeItem || obj.IsDeleted || obj.ItemData == nil {
			continue
		}
		for _, v := range obj.ItemData.Variations {
			if v.ID == "" {
				continue
			}
			if _, ok := seen[v.ID]; ok {
				continue
			}
			seen[v.ID] = struct{}{}
			out = append(out, v.ID)
		}
	}
	return out
}

// ProcessItems converts every live ITEM object into a ProcessedItem.
func ProcessItems(objects []square.CatalogObject, counts map[string]float64, rules Rules) []ProcessedItem {
	out := make([]ProcessedItem, 0, len(objects))
	for _, obj := range objects {
		if obj.Type != square.ObjectTypeItem || obj.IsDeleted || obj.ItemData == nil {
			continue
		}
		out = append(out, ProcessItem(obj, counts, rules))
	}
	return out
}

func ProcessItem(obj square.CatalogObject, counts map[string]float64, rules Rules) ProcessedItem {
	data := obj.ItemData
	item := ProcessedItem{
		ID:          obj.ID,
		Name:        ItemName(data.Name),
		Brand:       ItemBrand(data.Name),
		Description: data.Description,
		CategoryIDs: itemCategoryIDs(data),
		LocationIDs: append([]string{}, obj.PresentAtLocationIDs...),
	}

	var first *square.CatalogObject
	if len(data.Variations) > 0 {
		first = &data.Variations[0]
		if vd := first.ItemVariationData; vd != nil {
			item.Price = variationPrice(vd)
		}
		item.InStock = first.ID != "" && counts[first.ID] > 0
	}

	if rules.BottlePriceVariation && len(data.Variations) > 1 {
		second := data.Variations[1]
		if vd := second.ItemVariationData; vd != nil && vd.Name == bottleVariationName {
			item.BottlePrice = variationPrice(vd)
		}
	}

	attrs := attributeTable(obj, first)
	item.ABV = attrs[attrABV]
	item.City = attrs[attrCity]
	item.Varieties = attrs[attrVarieties]
	return item
}

// attributeTable maps custom attribute names to their text. Item-level values
// are applied before variation-level ones, so the variation wins on a clash.
func attributeTable(item square.CatalogObject, variation *square.CatalogObject) map[string]string {
	table := make(map[string]string)
	apply := func(values map[string]square.CustomAttributeValue) {
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			value := values[k]
			if value.Name == "" {
				continue
			}
			table[value.Name] = value.Text()
		}
	}
	apply(item.CustomAttributeValues)
	if variation != nil {
		apply(variation.CustomAttributeValues)
	}
	return table
}

func itemCategoryIDs(data *square.ItemData) []string {
	out := make([]string, 0, len(data.Categories)+1)
	for _, ref := range data.Categories {
		if ref.ID != "" && !containsString(out, ref.ID) {
			out = append(out, ref.ID)
		}
	}
	if data.CategoryID != "" && !containsString(out, data.CategoryID) {
		out = append(out, data.CategoryID)
	}
	return out
}

// variationPrice leaves the price empty for variable pricing and for a zero
// amount, which Square uses for items priced at the till.
func variationPrice(vd *square.ItemVariationData) string {
	if vd.PriceMoney == nil || vd.PriceMoney.Amount == 0 {
		return ""
	}
	return formatPrice(vd.PriceMoney.Amount)
}

func formatPrice(amount int64) string {
	return fmt.Sprintf("$%.2f", float64(amount)/100)
}
