package square

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ListCatalog returns every catalog object of the given types, following the
// pagination cursor until Square stops returning one.
func (c *Client) ListCatalog(ctx context.Context, types ...string) ([]CatalogObject, error) {
	var (
		objects []CatalogObject
		cursor  string
		page    int
	)
	for {
		query := url.Values{}
		if len(types) > 0 {
			query.Set("types", strings.Join(types, ","))
		}
		if cursor != "" {
			query.Set("cursor", cursor)
		}

		var resp listCatalogResponse
		if err := c.do(ctx, http.MethodGet, "/v2/catalog/list", query, nil, &resp); err != nil {
			return nil, fmt.Errorf("list catalog page %d: %w", page, err)
		}
		objects = append(objects, resp.Objects...)

		if resp.Cursor == "" {
			return objects, nil
		}
		cursor = resp.Cursor
		page++
	}
}

// ListCategories returns the REGULAR_CATEGORY objects currently in the catalog.
func (c *Client) ListCategories(ctx context.Context) ([]CatalogObject, error) {
	objects, err := c.ListCatalog(ctx, ObjectTypeCategory)
	if err != nil {
		return nil, err
	}
	out := make([]CatalogObject, 0, len(objects))
	for _, obj := range objects {
		if obj.IsDeleted || !obj.IsRegularCategory() {
			continue
		}
		out = append(out, obj)
	}
	return out, nil
}
