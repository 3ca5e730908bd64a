package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nexusfashion/nexus-backend/api/controllers"
	"github.com/nexusfashion/nexus-backend/api/middleware"
	"github.com/nexusfashion/nexus-backend/internal/auth"
	"github.com/nexusfashion/nexus-backend/internal/cart"
	"github.com/nexusfashion/nexus-backend/internal/catalog"
	checkoutsvc "github.com/nexusfashion/nexus-backend/internal/checkout"
	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/internal/orders"
	"github.com/nexusfashion/nexus-backend/internal/payouts"
	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/internal/wishlist"
	"github.com/nexusfashion/nexus-backend/pkg/auth/session"
	"github.com/nexusfashion/nexus-backend/pkg/config"
	"github.com/nexusfashion/nexus-backend/pkg/db"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"github.com/nexusfashion/nexus-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth        auth.Service
	Catalog     catalog.Service
	Cart        cart.Service
	Checkout    checkoutsvc.Service
	Wishlist    wishlist.Service
	Orders      orders.Service
	Commissions commissions.Service
	Payouts     payouts.Service
	Reports     reports.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	// Storefront reads need no session.
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.ProductList(svcs.Catalog, logg))
		r.Get("/products/{slug}", controllers.ProductBySlug(svcs.Catalog, logg))
		r.Get("/menu", controllers.MegaMenu(svcs.Catalog, logg))
		r.Get("/homepage", controllers.Homepage(svcs.Catalog, logg))
		r.Get("/brands", controllers.BrandList(svcs.Catalog, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).
			With(middleware.Idempotency(redisClient, logg)).
			Post("/register", controllers.Register(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.Login(svcs.Auth, logg))
		r.With(middleware.Auth(cfg.JWT, sessions, logg)).
			Post("/logout", controllers.Logout(svcs.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(svcs.Cart, logg))
			r.Post("/items", controllers.CartAddItem(svcs.Cart, logg))
			r.Patch("/items/{productID}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{productID}", controllers.CartRemoveItem(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
		})

		r.Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Get("/{orderID}", controllers.OrderGet(svcs.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(svcs.Orders, logg))
			r.Post("/{orderID}/return", controllers.OrderReturn(svcs.Orders, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(svcs.Wishlist, logg))
			r.Post("/items", controllers.WishlistAdd(svcs.Wishlist, logg))
			r.Delete("/items/{productID}", controllers.WishlistRemove(svcs.Wishlist, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Get("/order-items", controllers.VendorOrderItems(svcs.Orders, logg))
			r.Post("/order-items/{itemID}/status", controllers.OrderItemUpdateStatus(svcs.Orders, logg))
			r.Post("/products", controllers.ProductCreate(svcs.Catalog, logg))
			r.Patch("/products/{productID}", controllers.ProductUpdate(svcs.Catalog, logg))
		})

		// Commission approval and the payout lifecycle stay under their
		// resource paths; the services enforce the admin-only rules.
		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.CommissionList(svcs.Commissions, logg))
			r.Get("/summary", controllers.CommissionSummary(svcs.Commissions, logg))
			r.Post("/approve", controllers.CommissionApproveMany(svcs.Commissions, logg))
			r.Get("/{commissionID}", controllers.CommissionGet(svcs.Commissions, logg))
			r.Post("/{commissionID}/approve", controllers.CommissionApprove(svcs.Commissions, logg))
			r.Post("/{commissionID}/cancel", controllers.CommissionCancel(svcs.Commissions, logg))
		})

		r.Route("/payouts", func(r chi.Router) {
			r.Post("/", controllers.PayoutRequest(svcs.Payouts, logg))
			r.Get("/", controllers.PayoutList(svcs.Payouts, logg))
			r.Get("/{payoutID}", controllers.PayoutGet(svcs.Payouts, logg))
			r.Post("/{payoutID}/process", controllers.PayoutProcess(svcs.Payouts, logg))
			r.Post("/{payoutID}/complete", controllers.PayoutComplete(svcs.Payouts, logg))
			r.Post("/{payoutID}/fail", controllers.PayoutFail(svcs.Payouts, logg))
			r.Post("/{payoutID}/cancel", controllers.PayoutCancel(svcs.Payouts, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportList(svcs.Reports, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))

			r.Get("/ping", controllers.AdminPing())
			r.Post("/users", controllers.AdminCreateUser(svcs.Auth, logg))

			r.Route("/catalog", func(r chi.Router) {
				r.Post("/brands", controllers.BrandSave(svcs.Catalog, logg))
				r.Put("/brands/{brandID}", controllers.BrandSave(svcs.Catalog, logg))
				r.Post("/categories", controllers.CategorySave(svcs.Catalog, logg))
				r.Put("/categories/{categoryID}", controllers.CategorySave(svcs.Catalog, logg))
				r.Post("/sections", controllers.SectionSave(svcs.Catalog, logg))
				r.Put("/sections/{sectionID}", controllers.SectionSave(svcs.Catalog, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/{orderID}/confirm-payment", controllers.OrderConfirmPayment(svcs.Orders, logg))
				r.Post("/{orderID}/refund", controllers.OrderRefund(svcs.Orders, logg))
			})

			r.Post("/reports/generate", controllers.ReportGenerate(svcs.Reports, logg))
		})
	})

	return r
}
