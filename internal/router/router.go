package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/config"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/enum"
	"github.com/savoria-pos/api/internal/handler"
	"github.com/savoria-pos/api/internal/importer"
	mw "github.com/savoria-pos/api/internal/middleware"
	"github.com/savoria-pos/api/internal/service"
	"github.com/savoria-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication, restaurant scoping, and role-based middleware.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(mw.Metrics)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",        // SvelteKit dev server
			"https://admin.savoria.app",    // Production admin
			"https://terminal.savoria.app", // POS terminals
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cache.IsHealthy() {
			w.Write([]byte(`{"status":"ok","cache":"up"}`))
			return
		}
		w.Write([]byte(`{"status":"ok","cache":"down"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	r.Route("/auth", authHandler.RegisterRoutes)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/restaurants/{rid}/events", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Shared transactional store factories
	newInventoryStore := func(db database.DBTX) service.InventoryStore {
		return database.New(db)
	}
	inventoryService := service.NewInventoryService(pool, newInventoryStore)
	checkoutService := service.NewCheckoutService(pool,
		func(db database.DBTX) service.OrderStore { return database.New(db) },
		newInventoryStore,
	)
	spinService := service.NewSpinService(pool,
		func(db database.DBTX) service.SpinStore { return database.New(db) },
	)
	provisionService := service.NewProvisionService(pool,
		func(db database.DBTX) service.ProvisionStore { return database.New(db) },
	)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Platform admin routes (not restaurant-scoped)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.UserRoleAdmin))
			restaurantHandler := handler.NewRestaurantHandler(queries, provisionService)
			r.Route("/admin", restaurantHandler.RegisterRoutes)
		})

		// Restaurant-scoped routes
		r.Route("/restaurants/{rid}", func(r chi.Router) {
			r.Use(mw.RequireRestaurant)

			// Staff management (OWNER and MANAGER only)
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleOwner, enum.UserRoleManager))
				userHandler := handler.NewUserHandler(queries)
				r.Route("/users", userHandler.RegisterRoutes)
			})

			// Menu
			categoryHandler := handler.NewCategoryHandler(queries)
			r.Route("/categories", categoryHandler.RegisterRoutes)

			menuHandler := handler.NewMenuHandler(queries, hub)
			r.Route("/menu-items", menuHandler.RegisterRoutes)

			importHandler := handler.NewImportHandler(importer.New(queries), hub)
			r.Route("/menu-import", importHandler.RegisterRoutes)

			// Inventory
			inventoryHandler := handler.NewInventoryHandler(queries, inventoryService, hub)
			r.Route("/inventory", inventoryHandler.RegisterRoutes)

			// Orders and checkout
			orderHandler := handler.NewOrderHandler(queries, checkoutService, hub)
			r.Route("/orders", orderHandler.RegisterRoutes)

			// Customers and loyalty
			customerHandler := handler.NewCustomerHandler(queries)
			r.Route("/customers", customerHandler.RegisterRoutes)

			couponHandler := handler.NewCouponHandler(queries, service.NewCouponService(queries))
			r.Route("/coupons", couponHandler.RegisterRoutes)

			spinHandler := handler.NewSpinWheelHandler(queries, spinService)
			r.Route("/spin-wheel", spinHandler.RegisterRoutes)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
