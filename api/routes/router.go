package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aguilarsoft/cartsync/api/controllers"
	cartcontrollers "github.com/aguilarsoft/cartsync/api/controllers/cart"
	sessioncontrollers "github.com/aguilarsoft/cartsync/api/controllers/session"
	"github.com/aguilarsoft/cartsync/api/middleware"
	cartsvc "github.com/aguilarsoft/cartsync/internal/cart"
	"github.com/aguilarsoft/cartsync/pkg/config"
	"github.com/aguilarsoft/cartsync/pkg/logger"
)

type RouterParams struct {
	Config   *config.Config
	Logger   *logger.Logger
	Store    *cartsvc.Store
	Tokens   sessioncontrollers.TokenSink
	Snapshot controllers.Pinger
	Gatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger
	store := params.Store

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Snapshot))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(store, logg))
			r.Delete("/", cartcontrollers.CartClear(store, logg))
			r.Post("/items", cartcontrollers.CartAddItem(store, logg))
			r.Put("/items/{productID}", cartcontrollers.CartUpdateQuantity(store, logg))
			r.Delete("/items/{productID}", cartcontrollers.CartRemoveItem(store, logg))
			r.Post("/sync", cartcontrollers.CartSync(store, logg))
		})

		r.Route("/session", func(r chi.Router) {
			r.Post("/", sessioncontrollers.Start(store, params.Tokens, logg))
			r.Delete("/", sessioncontrollers.End(store, params.Tokens, logg))
		})
	})

	return r
}
