package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	MongoDatabase       string
	JWTSecret           string
	CronSecret          string
	CorsAllowedOrigins  []string
	MaxFileSizeBytes    int64
	RabbitMQURL         string
	RabbitMQWorkerMode  string
	JobMaxRetries       int
	JobRetryDelay       time.Duration
	WSHeartbeatInterval time.Duration

	SquareAccessToken         string
	SquareBaseURL             string
	SquareAPIVersion          string
	SquareTimeout             time.Duration
	SquareWebhookSignatureKey string
	SquareWebhookURL          string
	InventoryConcurrency      int

	BarInventoryLocationID      string
	CannedBottledBeerCategoryID string
	MenuNestedCategory          string
	MenuCategoryOrder           []string
	MenuExcludedItems           []string
	MenuChildExceptionItems     []string
	MenuBottlePrice             bool
	MenuReconcileTimeout        time.Duration
	MenuTitle                   string

	ShopifyStoreDomain     string
	ShopifyStorefrontToken string
	ShopifyAPIVersion      string

	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPFrom      string
	NotifyEmailTo []string

	GoogleSheetsID               string
	GoogleSheetsCredentialsFile  string
	GoogleSheetsContactRange     string
	GoogleSheetsApplicationRange string
	VenueTimezone                string

	ObjectStoreEndpoint        string
	ObjectStoreRegion          string
	ObjectStoreAccessKeyID     string
	ObjectStoreSecretAccessKey string
	ObjectStoreBucket          string
	ObjectStorePublicBaseURL   string
}

func Load() Config {
	cfg := Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		MongoDatabase:       getEnv("MONGO_DATABASE", "taproom"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		CronSecret:          getEnv("CRON_SECRET", ""),
		CorsAllowedOrigins:  splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),
		MaxFileSizeBytes:    getEnvInt64("MAX_FILE_SIZE", 10*1024*1024),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		RabbitMQWorkerMode:  getEnv("RABBITMQ_WORKER_MODE", "daemon"),
		JobMaxRetries:       int(getEnvInt64("JOB_MAX_RETRIES", 5)),
		JobRetryDelay:       getEnvDuration("JOB_RETRY_DELAY", 10*time.Second),
		WSHeartbeatInterval: getEnvDuration("WS_HEARTBEAT_INTERVAL", 30*time.Second),

		SquareAccessToken:         getEnv("SQUARE_ACCESS_TOKEN", ""),
		SquareBaseURL:             getEnv("SQUARE_BASE_URL", "https://connect.squareup.com"),
		SquareAPIVersion:          getEnv("SQUARE_API_VERSION", ""),
		SquareTimeout:             getEnvDuration("SQUARE_TIMEOUT", 15*time.Second),
		SquareWebhookSignatureKey: getEnv("SQUARE_WEBHOOK_SIGNATURE_KEY", ""),
		SquareWebhookURL:          getEnv("SQUARE_WEBHOOK_URL", ""),
		InventoryConcurrency:      int(getEnvInt64("INVENTORY_CONCURRENCY", 4)),

		BarInventoryLocationID:      getEnv("BAR_INVENTORY_LOCATION_ID", ""),
		CannedBottledBeerCategoryID: getEnv("CANNED_BOTTLED_BEER_CATEGORY_ID", ""),
		MenuNestedCategory:          getEnv("MENU_NESTED_CATEGORY", "Canned / Bottled"),
		MenuCategoryOrder:           splitCSV(getEnv("MENU_CATEGORY_ORDER", "")),
		MenuExcludedItems:           splitCSV(getEnv("MENU_EXCLUDED_ITEMS", "Kevin's Pale Ale")),
		MenuChildExceptionItems:     splitCSV(getEnv("MENU_CHILD_EXCEPTION_ITEMS", "")),
		MenuBottlePrice:             getEnvBool("MENU_BOTTLE_PRICE", false),
		MenuReconcileTimeout:        getEnvDuration("MENU_RECONCILE_TIMEOUT", 45*time.Second),
		MenuTitle:                   getEnv("MENU_TITLE", "Menu"),

		ShopifyStoreDomain:     getEnv("SHOPIFY_STORE_DOMAIN", ""),
		ShopifyStorefrontToken: getEnv("SHOPIFY_STOREFRONT_TOKEN", ""),
		ShopifyAPIVersion:      getEnv("SHOPIFY_API_VERSION", "2024-10"),

		SMTPHost:      getEnv("SMTP_HOST", ""),
		SMTPPort:      int(getEnvInt64("SMTP_PORT", 587)),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:      getEnv("SMTP_FROM", ""),
		NotifyEmailTo: splitCSV(getEnv("NOTIFY_EMAIL_TO", "")),

		GoogleSheetsID:               getEnv("GOOGLE_SHEETS_ID", ""),
		GoogleSheetsCredentialsFile:  getEnv("GOOGLE_SHEETS_CREDENTIALS_FILE", ""),
		GoogleSheetsContactRange:     getEnv("GOOGLE_SHEETS_CONTACT_RANGE", "Contact!A1"),
		GoogleSheetsApplicationRange: getEnv("GOOGLE_SHEETS_APPLICATION_RANGE", "Applications!A1"),
		VenueTimezone:                getEnv("VENUE_TIMEZONE", "America/New_York"),

		ObjectStoreEndpoint:        getEnv("OBJECT_STORE_ENDPOINT", ""),
		ObjectStoreRegion:          getEnv("OBJECT_STORE_REGION", "auto"),
		ObjectStoreAccessKeyID:     getEnv("OBJECT_STORE_ACCESS_KEY_ID", ""),
		ObjectStoreSecretAccessKey: getEnv("OBJECT_STORE_SECRET_ACCESS_KEY", ""),
		ObjectStoreBucket:          getEnv("OBJECT_STORE_BUCKET", ""),
		ObjectStorePublicBaseURL:   getEnv("OBJECT_STORE_PUBLIC_BASE_URL", ""),
	}

	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if cfg.InventoryConcurrency <= 0 {
		cfg.InventoryConcurrency = 4
	}
	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
