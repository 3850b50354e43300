package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenbasket/greenbasket-backend/api/controllers"
	"github.com/greenbasket/greenbasket-backend/api/middleware"
	cartsvc "github.com/greenbasket/greenbasket-backend/internal/cart"
	categorysvc "github.com/greenbasket/greenbasket-backend/internal/categories"
	notificationsvc "github.com/greenbasket/greenbasket-backend/internal/notifications"
	ordersvc "github.com/greenbasket/greenbasket-backend/internal/orders"
	paymentsvc "github.com/greenbasket/greenbasket-backend/internal/payments"
	procurementsvc "github.com/greenbasket/greenbasket-backend/internal/procurement"
	productsvc "github.com/greenbasket/greenbasket-backend/internal/products"
	returnsvc "github.com/greenbasket/greenbasket-backend/internal/returns"
	usersvc "github.com/greenbasket/greenbasket-backend/internal/users"
	vendorsvc "github.com/greenbasket/greenbasket-backend/internal/vendors"
	"github.com/greenbasket/greenbasket-backend/pkg/config"
	"github.com/greenbasket/greenbasket-backend/pkg/db"
	"github.com/greenbasket/greenbasket-backend/pkg/enums"
	"github.com/greenbasket/greenbasket-backend/pkg/logger"
	"github.com/greenbasket/greenbasket-backend/pkg/metrics"
	pkgredis "github.com/greenbasket/greenbasket-backend/pkg/redis"
	"github.com/greenbasket/greenbasket-backend/pkg/storage/gcs"
)

// Services bundles the domain services the router wires to handlers.
type Services struct {
	Users         usersvc.Service
	Cart          cartsvc.Service
	Products      productsvc.Service
	Categories    categorysvc.Service
	Vendors       vendorsvc.Service
	Orders        ordersvc.Service
	Payments      paymentsvc.Service
	Returns       returnsvc.Service
	Procurement   procurementsvc.Service
	Notifications notificationsvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	storageP gcs.Pinger,
	httpMetrics *metrics.HTTPMetrics,
	gatherer prometheus.Gatherer,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
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
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient, storageP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).
			Post("/login", controllers.AuthLogin(svcs.Users, logg))
		r.With(
			middleware.AuthRateLimit(registerPolicy, redisClient, logg),
			middleware.Idempotency(redisClient, logg),
		).Post("/register", controllers.AuthRegister(svcs.Users, logg))
	})

	// catalog browsing is open
	r.Route("/api/v1/catalog", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(svcs.Products, logg))
		r.Get("/products/{productId}", controllers.GetProduct(svcs.Products, logg))
		r.Get("/categories", controllers.ListCategories(svcs.Categories, logg))
		r.Get("/categories/{categoryId}", controllers.GetCategory(svcs.Categories, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/auth/me", controllers.AuthMe(svcs.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(svcs.Cart, logg))
			r.Post("/", controllers.CartReplace(svcs.Cart, logg))
			r.Delete("/", controllers.CartClear(svcs.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(svcs.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(svcs.Orders, logg))
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
			r.Patch("/{orderId}", controllers.UpdateOrder(svcs.Orders, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(svcs.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(svcs.Orders, logg))
			r.Post("/{orderId}/assign", controllers.AssignOrderAgent(svcs.Orders, logg))
			r.Delete("/{orderId}", controllers.DeleteOrder(svcs.Orders, logg))
			r.Get("/{orderId}/payments", controllers.ListOrderPayments(svcs.Payments, logg))
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", controllers.RecordPayment(svcs.Payments, logg))
			r.Patch("/{paymentId}/status", controllers.UpdatePaymentStatus(svcs.Payments, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", controllers.CreateReturn(svcs.Returns, logg))
			r.Get("/", controllers.ListReturns(svcs.Returns, logg))
			r.Get("/{returnId}", controllers.GetReturn(svcs.Returns, logg))
			r.Patch("/{returnId}/status", controllers.UpdateReturnStatus(svcs.Returns, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))

			r.Route("/users", func(r chi.Router) {
				r.Post("/", controllers.AdminProvisionUser(svcs.Users, logg))
				r.Get("/", controllers.AdminListUsers(svcs.Users, logg))
				r.Patch("/{userId}", controllers.AdminUpdateUser(svcs.Users, logg))
				r.Delete("/{userId}", controllers.AdminDeactivateUser(svcs.Users, logg))
			})

			r.Route("/products", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateProduct(svcs.Products, logg))
				r.Patch("/{productId}", controllers.AdminUpdateProduct(svcs.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(svcs.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateCategory(svcs.Categories, logg))
				r.Patch("/{categoryId}", controllers.AdminUpdateCategory(svcs.Categories, logg))
				r.Post("/{categoryId}/image", controllers.AdminUploadCategoryImage(svcs.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(svcs.Categories, logg))
			})

			r.Route("/vendors", func(r chi.Router) {
				r.Post("/", controllers.AdminCreateVendor(svcs.Vendors, logg))
				r.Get("/", controllers.AdminListVendors(svcs.Vendors, logg))
				r.Get("/{vendorId}", controllers.AdminGetVendor(svcs.Vendors, logg))
				r.Patch("/{vendorId}", controllers.AdminUpdateVendor(svcs.Vendors, logg))
				r.Post("/{vendorId}/documents/{kind}", controllers.AdminUploadVendorDocument(svcs.Vendors, logg))
				r.Delete("/{vendorId}", controllers.AdminDeleteVendor(svcs.Vendors, logg))
			})

			r.Route("/purchase-orders", func(r chi.Router) {
				r.Post("/", controllers.AdminCreatePurchaseOrder(svcs.Procurement, logg))
				r.Get("/", controllers.AdminListPurchaseOrders(svcs.Procurement, logg))
				r.Get("/{purchaseOrderId}", controllers.AdminGetPurchaseOrder(svcs.Procurement, logg))
				r.Patch("/{purchaseOrderId}/status", controllers.AdminUpdatePurchaseOrderStatus(svcs.Procurement, logg))
				r.Post("/{purchaseOrderId}/grns", controllers.AdminPostGRN(svcs.Procurement, logg))
				r.Get("/{purchaseOrderId}/grns", controllers.AdminListGRNs(svcs.Procurement, logg))
			})
		})
	})

	return r
}
