package square

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// InventoryBatchSize is the most object ids Square accepts per batch-retrieve call.
const InventoryBatchSize = 100

// InventoryCounts returns IN_STOCK quantities at locationID keyed by catalog
// object id. Ids with no count are absent from the map.
func (c *Client) InventoryCounts(ctx context.Context, locationID string, objectIDs []string) (map[string]float64, error) {
	batches := chunkIDs(objectIDs, InventoryBatchSize)
	results := make([][]InventoryCount, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.InventoryConcurrency)
	for i, batch := range batches {
		g.Go(func() error {
			counts, err := c.retrieveCountsBatch(gctx, locationID, batch)
			if err != nil {
				return fmt.Errorf("inventory batch %d: %w", i, err)
			}
			results[i] = counts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, counts := range results {
		for _, count := range counts {
			if count.State != InventoryStateInStock {
				continue
			}
			if locationID != "" && count.LocationID != locationID {
				continue
			}
			qty, err := strconv.ParseFloat(strings.TrimSpace(count.Quantity), 64)
			if err != nil {
				continue
			}
			out[count.CatalogObjectID] += qty
		}
	}
	return out, nil
}

func (c *Client) retrieveCountsBatch(ctx context.Context, locationID string, ids []string) ([]InventoryCount, error) {
	req := batchRetrieveCountsRequest{
		CatalogObjectIDs: ids,
		States:           []string{InventoryStateInStock},
	}
	if locationID != "" {
		req.LocationIDs = []string{locationID}
	}

	var counts []InventoryCount
	for {
		var resp batchRetrieveCountsResponse
		if err := c.do(ctx, http.MethodPost, "/v2/inventory/counts/batch-retrieve", nil, req, &resp); err != nil {
			return nil, err
		}
		counts = append(counts, resp.Counts...)
		if resp.Cursor == "" {
			return counts, nil
		}
		req.Cursor = resp.Cursor
	}
}

func chunkIDs(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}
