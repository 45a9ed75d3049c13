package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-catalog/api/controllers"
	"github.com/angelmondragon/storefront-catalog/api/middleware"
	"github.com/angelmondragon/storefront-catalog/internal/views"
	"github.com/angelmondragon/storefront-catalog/pkg/config"
	"github.com/angelmondragon/storefront-catalog/pkg/logger"
)

// Registry is the view store the routes operate on.
type Registry interface {
	controllers.ViewRegistry
	middleware.ViewLookup
}

// Deps are the collaborators wired into the router. RateLimiter, the pingers
// and Events are optional.
type Deps struct {
	Registry    Registry
	RateLimiter middleware.RateLimitStore
	Pingers     map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	Events      controllers.EventSubscriber
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	cartPolicy := middleware.NewCartRateLimitPolicy(
		cfg.CartLimit.Window,
		cfg.CartLimit.IPLimit,
		cfg.CartLimit.ViewLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/facets", controllers.Facets())

		r.Post("/views", controllers.ViewCreate(deps.Registry, logg))

		r.Route("/views/{viewId}", func(r chi.Router) {
			r.Use(middleware.ViewContext(deps.Registry, logg))
			r.Delete("/", controllers.ViewDelete(deps.Registry, logg))
			r.Get("/events", controllers.ViewEvents(deps.Events, logg))

			r.Route("/listing", func(r chi.Router) {
				r.Get("/", controllers.ListingGet(logg))
				r.Post("/hydrate", controllers.ListingHydrate(logg))
				r.Post("/categories", controllers.ListingToggleCategory(logg))
				r.Post("/price", controllers.ListingSetPrice(logg))
				r.Post("/price-submit", controllers.ListingSubmitPrice(logg))
				r.Post("/search", controllers.ListingSearch(logg))
				r.Post("/sort", controllers.ListingSort(logg))
				r.Post("/page", controllers.ListingPage(logg))
				r.Post("/clear", controllers.ListingClear(logg))
				r.Post("/retry", controllers.ListingRetry(logg))
			})

			r.Route("/detail", func(r chi.Router) {
				r.Get("/", controllers.DetailGet(logg))
				r.Post("/", controllers.DetailOpen(logg))
				r.Delete("/", controllers.DetailClose(logg))
				r.Post("/color", controllers.DetailSelectColor(logg))
				r.Post("/size", controllers.DetailSelectSize(logg))
				r.Post("/image", controllers.DetailSelectImage(logg))
				r.With(middleware.CartRateLimit(cartPolicy, deps.RateLimiter, logg)).Post("/cart", controllers.DetailAddToCart(logg))
				r.Post("/error/dismiss", controllers.DetailDismissError(logg))
			})
		})
	})

	return r
}

var _ Registry = (*views.Registry)(nil)
