// Package app wires configuration into the services shared by the API
// server and the ops CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/config"
	"taproom-services/internal/db"
	"taproom-services/internal/menu"
	"taproom-services/internal/notify"
	"taproom-services/internal/square"
	"taproom-services/internal/storage"
	"taproom-services/internal/store"
	"taproom-services/internal/store/mongodb"
	"taproom-services/internal/store/postgres"

	"go.uber.org/zap"
)

var ErrUnsupportedDatabase = errors.New("DATABASE_URL must be a postgres:// or mongodb:// url")

// Backend is an opened store backend. Close releases its connections.
type Backend struct {
	Name   string
	Stores store.Stores
	Close  func()
}

// OpenStores selects the backend from the DATABASE_URL scheme, connects, and
// prepares its schema or indexes.
func OpenStores(ctx context.Context, cfg config.Config, log *zap.Logger) (Backend, error) {
	switch {
	case db.IsPostgresURL(cfg.DatabaseURL):
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return Backend{}, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return Backend{}, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info("store backend ready", zap.String("backend", "postgres"))
		return Backend{Name: "postgres", Stores: postgres.New(pool), Close: pool.Close}, nil

	case db.IsMongoURL(cfg.DatabaseURL):
		client, err := mongodb.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return Backend{}, err
		}
		name := mongodb.DatabaseName(cfg.DatabaseURL, cfg.MongoDatabase)
		database := client.Database(name)
		if err := mongodb.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return Backend{}, err
		}
		log.Info("store backend ready", zap.String("backend", "mongodb"), zap.String("database", name))
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return Backend{Name: "mongodb", Stores: mongodb.New(client, database), Close: closeFn}, nil
	}
	return Backend{}, ErrUnsupportedDatabase
}

func SquareClient(cfg config.Config) *square.Client {
	return square.NewClient(square.Config{
		BaseURL:              cfg.SquareBaseURL,
		AccessToken:          cfg.SquareAccessToken,
		APIVersion:           cfg.SquareAPIVersion,
		Timeout:              cfg.SquareTimeout,
		InventoryConcurrency: cfg.InventoryConcurrency,
	}, nil)
}

func MenuRules(cfg config.Config) catalog.Rules {
	return catalog.Rules{
		BarLocationID:        cfg.BarInventoryLocationID,
		CannedBottledID:      cfg.CannedBottledBeerCategoryID,
		NestedCategory:       cfg.MenuNestedCategory,
		CategoryOrder:        cfg.MenuCategoryOrder,
		ExcludedItems:        cfg.MenuExcludedItems,
		ChildExceptionItems:  cfg.MenuChildExceptionItems,
		BottlePriceVariation: cfg.MenuBottlePrice,
	}
}

// MenuService builds the reconciliation service over stores. notifier may
// be nil.
func MenuService(cfg config.Config, stores store.Stores, source catalog.Source, notifier menu.Notifier, log *zap.Logger) *menu.Service {
	deps := menu.Deps{
		Source:     source,
		Rules:      MenuRules(cfg),
		Menus:      stores.Menus,
		Fallback:   stores.FallbackMenus,
		Categories: stores.Categories,
		Notifier:   notifier,
		Logger:     log,
		Timeout:    cfg.MenuReconcileTimeout,
	}
	return menu.NewService(deps)
}

// Notifier builds the staff notifier from whichever channels are configured.
func Notifier(ctx context.Context, cfg config.Config, log *zap.Logger) *notify.Notifier {
	n := &notify.Notifier{
		ContactSheet:     cfg.GoogleSheetsContactRange,
		ApplicationSheet: cfg.GoogleSheetsApplicationRange,
		Logger:           log,
	}
	if loc, err := time.LoadLocation(cfg.VenueTimezone); err == nil {
		n.Location = loc
	} else {
		log.Warn("unknown venue timezone; using UTC", zap.String("timezone", cfg.VenueTimezone))
	}

	mailer := notify.NewMailer(notify.MailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		To:       cfg.NotifyEmailTo,
	})
	if mailer.Configured() {
		n.Mail = mailer
	} else {
		log.Info("email notifications disabled")
	}

	if strings.TrimSpace(cfg.GoogleSheetsID) != "" && strings.TrimSpace(cfg.GoogleSheetsCredentialsFile) != "" {
		creds, err := os.ReadFile(cfg.GoogleSheetsCredentialsFile)
		if err != nil {
			log.Warn("read google credentials failed; sheet logging disabled", zap.Error(err))
			return n
		}
		sheets, err := notify.NewSheets(ctx, cfg.GoogleSheetsID, creds)
		if err != nil {
			log.Warn("google sheets setup failed; sheet logging disabled", zap.Error(err))
			return n
		}
		n.Sheets = sheets
	}
	return n
}

// ObjectStore returns nil when no bucket is configured.
func ObjectStore(ctx context.Context, cfg config.Config, log *zap.Logger) *storage.ObjectStore {
	if strings.TrimSpace(cfg.ObjectStoreEndpoint) == "" || strings.TrimSpace(cfg.ObjectStoreBucket) == "" {
		log.Info("object storage disabled; uploads are unavailable")
		return nil
	}
	objects, err := storage.NewObjectStore(ctx, storage.Config{
		Endpoint:        cfg.ObjectStoreEndpoint,
		Region:          cfg.ObjectStoreRegion,
		AccessKeyID:     cfg.ObjectStoreAccessKeyID,
		SecretAccessKey: cfg.ObjectStoreSecretAccessKey,
		Bucket:          cfg.ObjectStoreBucket,
		PublicBaseURL:   cfg.ObjectStorePublicBaseURL,
	})
	if err != nil {
		log.Warn("object storage setup failed; uploads are unavailable", zap.Error(err))
		return nil
	}
	return objects
}
