package square

import (
	"strconv"
	"strings"
)

const (
	ObjectTypeItem          = "ITEM"
	ObjectTypeCategory      = "CATEGORY"
	ObjectTypeItemVariation = "ITEM_VARIATION"

	CategoryTypeRegular = "REGULAR_CATEGORY"

	InventoryStateInStock = "IN_STOCK"
)

// CatalogObject is the tagged union returned by the Catalog API. Only the
// fields the menu needs are decoded.
type CatalogObject struct {
	Type                  string                          `json:"type"`
	ID                    string                          `json:"id"`
	UpdatedAt             string                          `json:"updated_at,omitempty"`
	Version               int64                           `json:"version,omitempty"`
	IsDeleted             bool                            `json:"is_deleted,omitempty"`
	PresentAtAllLocations bool                            `json:"present_at_all_locations,omitempty"`
	PresentAtLocationIDs  []string                        `json:"present_at_location_ids,omitempty"`
	AbsentAtLocationIDs   []string                        `json:"absent_at_location_ids,omitempty"`
	CustomAttributeValues map[string]CustomAttributeValue `json:"custom_attribute_values,omitempty"`
	ItemData              *ItemData                       `json:"item_data,omitempty"`
	ItemVariationData     *ItemVariationData              `json:"item_variation_data,omitempty"`
	CategoryData          *CategoryData                   `json:"category_data,omitempty"`
}

type CustomAttributeValue struct {
	Name                        string  `json:"name"`
	Key                         string  `json:"key,omitempty"`
	Type                        string  `json:"type,omitempty"`
	CustomAttributeDefinitionID string  `json:"custom_attribute_definition_id,omitempty"`
	StringValue                 *string `json:"string_value,omitempty"`
	NumberValue                 *string `json:"number_value,omitempty"`
	BooleanValue                *bool   `json:"boolean_value,omitempty"`
}

// Text returns the attribute's value as display text, or "" when it carries
// no scalar value.
func (v CustomAttributeValue) Text() string {
	switch {
	case v.StringValue != nil:
		return strings.TrimSpace(*v.StringValue)
	case v.NumberValue != nil:
		return strings.TrimSpace(*v.NumberValue)
	case v.BooleanValue != nil:
		return strconv.FormatBool(*v.BooleanValue)
	}
	return ""
}

type ItemData struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	CategoryID  string          `json:"category_id,omitempty"`
	Categories  []CategoryRef   `json:"categories,omitempty"`
	Variations  []CatalogObject `json:"variations,omitempty"`
}

type CategoryRef struct {
	ID      string `json:"id"`
	Ordinal int64  `json:"ordinal,omitempty"`
}

type ItemVariationData struct {
	ItemID         string `json:"item_id,omitempty"`
	Name           string `json:"name"`
	Ordinal        int64  `json:"ordinal,omitempty"`
	PricingType    string `json:"pricing_type,omitempty"`
	PriceMoney     *Money `json:"price_money,omitempty"`
	TrackInventory bool   `json:"track_inventory,omitempty"`
}

type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type CategoryData struct {
	Name         string `json:"name"`
	CategoryType string `json:"category_type,omitempty"`
}

// IsRegularCategory reports whether obj is a REGULAR_CATEGORY. Objects
// written before category types existed omit the field and count as regular.
func (obj CatalogObject) IsRegularCategory() bool {
	if obj.Type != ObjectTypeCategory || obj.CategoryData == nil {
		return false
	}
	ct := strings.TrimSpace(obj.CategoryData.CategoryType)
	return ct == "" || ct == CategoryTypeRegular
}

type InventoryCount struct {
	CatalogObjectID   string `json:"catalog_object_id"`
	CatalogObjectType string `json:"catalog_object_type,omitempty"`
	State             string `json:"state"`
	LocationID        string `json:"location_id"`
	Quantity          string `json:"quantity"`
	CalculatedAt      string `json:"calculated_at,omitempty"`
}

type listCatalogResponse struct {
	Objects []CatalogObject `json:"objects"`
	Cursor  string          `json:"cursor,omitempty"`
	Errors  []ErrorDetail   `json:"errors,omitempty"`
}

type batchRetrieveCountsRequest struct {
	CatalogObjectIDs []string `json:"catalog_object_ids"`
	LocationIDs      []string `json:"location_ids,omitempty"`
	States           []string `json:"states,omitempty"`
	Cursor           string   `json:"cursor,omitempty"`
}

type batchRetrieveCountsResponse struct {
	Counts []InventoryCount `json:"counts"`
	Cursor string           `json:"cursor,omitempty"`
	Errors []ErrorDetail    `json:"errors,omitempty"`
}
