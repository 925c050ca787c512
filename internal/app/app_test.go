package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"taproom-services/internal/config"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

func TestMenuRulesFromConfig(t *testing.T) {
	cfg := config.Config{
		BarInventoryLocationID:      "LOC-BAR",
		CannedBottledBeerCategoryID: "CAT-CANS",
		MenuNestedCategory:          "Canned / Bottled",
		MenuCategoryOrder:           []string{"Draft", "Canned / Bottled"},
		MenuExcludedItems:           []string{"Kevin's Pale Ale"},
		MenuBottlePrice:             true,
	}
	rules := MenuRules(cfg)
	if rules.BarLocationID != "LOC-BAR" || rules.CannedBottledID != "CAT-CANS" || !rules.BottlePriceVariation {
		t.Fatalf("unexpected rules %+v", rules)
	}
	if diff := cmp.Diff(cfg.MenuCategoryOrder, rules.CategoryOrder); diff != "" {
		t.Fatalf("category order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cfg.MenuExcludedItems, rules.ExcludedItems); diff != "" {
		t.Fatalf("excluded items mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenStoresRejectsUnknownScheme(t *testing.T) {
	for _, url := range []string{"", "mysql://localhost/taproom", "sqlite:///tmp/x.db"} {
		_, err := OpenStores(context.Background(), config.Config{DatabaseURL: url}, zap.NewNop())
		if !errors.Is(err, ErrUnsupportedDatabase) {
			t.Fatalf("%q: expected ErrUnsupportedDatabase, got %v", url, err)
		}
	}
}

func TestObjectStoreDisabledWithoutBucket(t *testing.T) {
	if got := ObjectStore(context.Background(), config.Config{ObjectStoreEndpoint: "https://r2.example"}, zap.NewNop()); got != nil {
		t.Fatal("expected nil object store without a bucket")
	}
}

func TestNotifierChannels(t *testing.T) {
	cfg := config.Config{
		VenueTimezone:               "America/New_York",
		GoogleSheetsID:              "sheet-1",
		GoogleSheetsCredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
		GoogleSheetsContactRange:    "Contact!A1",
	}
	n := Notifier(context.Background(), cfg, zap.NewNop())
	if n.Mail != nil {
		t.Fatal("mail should be disabled without SMTP settings")
	}
	if n.Sheets != nil {
		t.Fatal("sheets should be disabled when credentials cannot be read")
	}
	if n.Location == nil || n.Location.String() != "America/New_York" {
		t.Fatalf("unexpected location %v", n.Location)
	}

	cfg.SMTPHost, cfg.SMTPFrom, cfg.NotifyEmailTo = "smtp.example", "bar@example.com", []string{"staff@example.com"}
	if n := Notifier(context.Background(), cfg, zap.NewNop()); n.Mail == nil {
		t.Fatal("mail should be enabled with SMTP settings")
	}
}
