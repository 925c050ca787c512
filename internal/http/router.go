package httpapi

import (
	"net/http"

	"taproom-services/internal/config"
	"taproom-services/internal/http/handlers"
	"taproom-services/internal/middleware"
	"taproom-services/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(logger *zap.Logger, cfg config.Config, h *handlers.Handler, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			ExposedHeaders:   []string{"X-Menu-Source", "X-Menu-Version", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.CatalogSync)
		r.Get("/square/catalog", h.CatalogSync)
		r.Post("/square/webhook", h.SquareWebhook)
		r.Get("/menu", h.PublicMenu)
		r.Get("/menu/print", h.PublicMenuPrint)
		r.Get("/fallback-menu", h.PublicFallbackMenu)

		r.Get("/events", h.PublicEvents)
		r.Get("/events/{id}", h.PublicEventGet)
		r.Post("/contact", h.PublicContact)
		r.Post("/jobs/apply", h.PublicJobApply)

		r.Route("/shop", func(r chi.Router) {
			r.Get("/products", h.ShopProducts)
			r.Get("/products/{handle}", h.ShopProduct)
			r.Post("/cart", h.ShopCartCreate)
			r.Get("/cart/{cartId}", h.ShopCartGet)
			r.Post("/cart/{cartId}/lines", h.ShopCartLinesAdd)
			r.Put("/cart/{cartId}/lines", h.ShopCartLinesUpdate)
			r.Delete("/cart/{cartId}/lines", h.ShopCartLinesRemove)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWTSecret))

			r.Get("/categories", h.AdminCategoriesGet)
			r.Put("/categories", h.AdminCategoriesPut)
			r.Get("/categories/square", h.AdminSquareCategories)
			r.Post("/menu/refresh", h.AdminMenuRefresh)

			r.Get("/events", h.AdminEventsList)
			r.Post("/events", h.AdminEventCreate)
			r.Put("/events/{id}", h.AdminEventUpdate)
			r.Delete("/events/{id}", h.AdminEventDelete)
			r.Post("/events/{id}/flyer", h.AdminEventFlyer)

			r.Get("/messages", h.AdminMessagesList)
			r.Patch("/messages/{id}/read", h.AdminMessageRead)
			r.Delete("/messages/{id}", h.AdminMessageDelete)
			r.Get("/applications", h.AdminApplicationsList)
			r.Get("/applications/{id}", h.AdminApplicationGet)
		})

		r.Route("/cron", func(r chi.Router) {
			r.Use(middleware.CronAuth(cfg.CronSecret))
			r.Post("/catalog-sync", h.CronCatalogSync)
		})
	})

	if wsServer != nil {
		r.Get("/ws/menu", wsServer.MenuWS)
	}

	return r
}
