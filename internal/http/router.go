package http

import (
	"net/http"
	"time"

	"github.com/fjod/thread-storefront/internal/identity"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/fjod/thread-storefront/internal/session"
	"github.com/fjod/thread-storefront/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Deps are the collaborators the HTTP surface is built from. Auth may be nil
// when the identity provider is not configured.
type Deps struct {
	Auth     *identity.Service
	Catalog  *service.CatalogService
	Cart     *service.CartService
	Wishlist *service.WishlistService
	Checkout *service.CheckoutService
	Orders   *service.OrderService
	Account  *service.AccountService

	Metrics  *metrics.ServerMetrics
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	// BootstrapToken is verified once when the router is built. Requests
	// without an Authorization header stay anonymous regardless.
	BootstrapToken string
	RequestTimeout time.Duration
	MaxRequestBody int64
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	checkBootstrapToken(d.Auth, d.BootstrapToken, d.Logger)

	authHandler := NewAuthHandler(d.RequestTimeout, d.Logger)
	viewHandler := NewViewHandler(d.Logger)
	productHandler := NewProductHandler(d.Catalog, d.RequestTimeout, d.Logger)
	cartHandler := NewCartHandler(d.Cart, d.RequestTimeout, d.Logger)
	wishlistHandler := NewWishlistHandler(d.Wishlist, d.RequestTimeout, d.Logger)
	checkoutHandler := NewCheckoutHandler(d.Checkout, d.RequestTimeout, d.Logger)
	accountHandler := NewAccountHandler(d.Account, d.Orders, d.RequestTimeout, d.Logger)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(d.Logger))
	if d.Metrics != nil {
		r.Use(MetricsMiddleware(d.Metrics))
	}
	r.Use(middleware.Timeout(d.RequestTimeout))
	if d.MaxRequestBody > 0 {
		r.Use(middleware.RequestSize(d.MaxRequestBody))
	}
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(d.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(d.Auth, d.Cart, d.Logger))

		r.Get("/views/{page}", viewHandler.Resolve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", authHandler.SignUp)
			r.Post("/signin", authHandler.SignIn)
			r.Post("/signout", authHandler.SignOut)
			r.Get("/me", authHandler.Me)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Get("/featured", productHandler.Featured)
			r.Get("/{id}", productHandler.Get)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{id}", cartHandler.RemoveItem)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(RequireView(session.ViewWishlist))
			r.Get("/", wishlistHandler.List)
			r.Post("/", wishlistHandler.Save)
			r.Delete("/{id}", wishlistHandler.Remove)
			r.Post("/{id}/move-to-cart", wishlistHandler.MoveToCart)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(RequireView(session.ViewCheckout))
			r.Post("/", checkoutHandler.Begin)
			r.Get("/{id}", checkoutHandler.Get)
			r.Put("/{id}/shipping", checkoutHandler.SetShipping)
			r.Put("/{id}/details", checkoutHandler.SetDetails)
			r.Post("/{id}/orders", checkoutHandler.PlaceOrder)
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireView(session.ViewAccount))
			r.Get("/account", accountHandler.Overview)
			r.Get("/orders", accountHandler.Orders)
		})
	})

	return otelhttp.NewHandler(r, "storefront-http")
}
