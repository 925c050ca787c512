package handlers

import (
	"context"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/config"
	"taproom-services/internal/jobs"
	"taproom-services/internal/menu"
	"taproom-services/internal/shopify"
	"taproom-services/internal/square"
	"taproom-services/internal/store"

	"go.uber.org/zap"
)

type MenuService interface {
	Reconcile(ctx context.Context) (menu.Outcome, error)
	Latest(ctx context.Context) (store.MenuRecord, error)
	Fallback(ctx context.Context) (store.MenuRecord, error)
	Categories(ctx context.Context) (catalog.ExpectedCategories, error)
	SetCategories(ctx context.Context, expected catalog.ExpectedCategories) error
}

// SquareCategories lists the categories currently defined in Square.
type SquareCategories interface {
	ListCategories(ctx context.Context) ([]square.CatalogObject, error)
}

type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	DeleteURL(ctx context.Context, raw string) error
}

type Shop interface {
	Configured() bool
	Products(ctx context.Context, first int, after string) (shopify.ProductPage, error)
	Product(ctx context.Context, handle string) (shopify.Product, error)
	CartCreate(ctx context.Context, lines []shopify.CartLineInput) (shopify.Cart, error)
	Cart(ctx context.Context, cartID string) (shopify.Cart, error)
	CartLinesAdd(ctx context.Context, cartID string, lines []shopify.CartLineInput) (shopify.Cart, error)
	CartLinesUpdate(ctx context.Context, cartID string, lines []shopify.CartLineUpdate) (shopify.Cart, error)
	CartLinesRemove(ctx context.Context, cartID string, lineIDs []string) (shopify.Cart, error)
}

type Handler struct {
	Logger  *zap.Logger
	Config  config.Config
	Menu    MenuService
	Square  SquareCategories
	Stores  store.Stores
	Jobs    jobs.Enqueuer
	Storage ObjectStore
	Shop    Shop
	Now     func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
