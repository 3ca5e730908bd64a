package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nexusfashion/nexus-backend/internal/auth"
	"github.com/nexusfashion/nexus-backend/internal/cart"
	"github.com/nexusfashion/nexus-backend/internal/catalog"
	checkoutsvc "github.com/nexusfashion/nexus-backend/internal/checkout"
	"github.com/nexusfashion/nexus-backend/internal/commissions"
	"github.com/nexusfashion/nexus-backend/internal/orders"
	"github.com/nexusfashion/nexus-backend/internal/payouts"
	"github.com/nexusfashion/nexus-backend/internal/reports"
	"github.com/nexusfashion/nexus-backend/internal/users"
	"github.com/nexusfashion/nexus-backend/internal/wishlist"
	pkgauth "github.com/nexusfashion/nexus-backend/pkg/auth"
	"github.com/nexusfashion/nexus-backend/pkg/auth/session"
	"github.com/nexusfashion/nexus-backend/pkg/config"
	"github.com/nexusfashion/nexus-backend/pkg/db/models"
	"github.com/nexusfashion/nexus-backend/pkg/enums"
	"github.com/nexusfashion/nexus-backend/pkg/logger"
	"github.com/nexusfashion/nexus-backend/pkg/outbox"
	"github.com/nexusfashion/nexus-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, req auth.RegisterRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{}, nil
}

func (stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{}, nil
}

func (stubAuthService) Logout(ctx context.Context, accessID string) error { return nil }

func (stubAuthService) AdminCreateUser(ctx context.Context, input auth.AdminCreateUserInput) (*users.UserDTO, error) {
	return &users.UserDTO{}, nil
}

type stubCatalogService struct{}

func (stubCatalogService) ListProducts(ctx context.Context, input catalog.ListProductsInput) ([]models.Product, string, error) {
	return nil, "", nil
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return &models.Product{}, nil
}

func (stubCatalogService) MegaMenu(ctx context.Context) ([]catalog.MenuColumn, error) {
	return nil, nil
}

func (stubCatalogService) Homepage(ctx context.Context) ([]models.HomepageSection, error) {
	return nil, nil
}

func (stubCatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return nil, nil
}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, input catalog.UpdateProductInput) (*models.Product, error) {
	panic("unimplemented")
}

func (stubCatalogService) SaveBrand(ctx context.Context, input catalog.SaveBrandInput) (*models.Brand, error) {
	panic("unimplemented")
}

func (stubCatalogService) SaveCategory(ctx context.Context, input catalog.SaveCategoryInput) (*models.Category, error) {
	panic("unimplemented")
}

func (stubCatalogService) SaveSection(ctx context.Context, input catalog.SaveSectionInput) (*models.HomepageSection, error) {
	panic("unimplemented")
}

type stubCartService struct{}

func (stubCartService) Get(ctx context.Context, customerID uuid.UUID) (*models.CartRecord, error) {
	return &models.CartRecord{}, nil
}

func (stubCartService) AddItem(ctx context.Context, input cart.AddItemInput) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) UpdateItemQty(ctx context.Context, input cart.UpdateQtyInput) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.CartRecord, error) {
	panic("unimplemented")
}

func (stubCartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	panic("unimplemented")
}

type stubCheckoutService struct{}

func (stubCheckoutService) PlaceOrder(ctx context.Context, input checkoutsvc.PlaceOrderInput) (*models.Order, error) {
	panic("unimplemented")
}

type stubWishlistService struct{}

func (stubWishlistService) List(ctx context.Context, input wishlist.ListInput) ([]wishlist.Entry, string, error) {
	return nil, "", nil
}

func (stubWishlistService) AddItem(ctx context.Context, input wishlist.ItemInput) error {
	panic("unimplemented")
}

func (stubWishlistService) RemoveItem(ctx context.Context, input wishlist.ItemInput) error {
	panic("unimplemented")
}

type stubOrdersService struct{}

func (stubOrdersService) ConfirmPayment(ctx context.Context, input orders.ConfirmPaymentInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) UpdateItemStatus(ctx context.Context, input orders.UpdateItemStatusInput) (*models.OrderItem, error) {
	panic("unimplemented")
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) MarkReturned(ctx context.Context, input orders.ReturnInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) Refund(ctx context.Context, input orders.RefundInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) GetByID(ctx context.Context, input orders.GetInput) (*models.Order, error) {
	panic("unimplemented")
}

func (stubOrdersService) ListForCustomer(ctx context.Context, input orders.ListInput) ([]models.Order, error) {
	return nil, nil
}

func (stubOrdersService) ListVendorItems(ctx context.Context, input orders.VendorItemsInput) ([]models.OrderItem, error) {
	return nil, nil
}

type stubCommissionsService struct{}

func (stubCommissionsService) BuildForOrder(ctx context.Context, tx *gorm.DB, order *models.Order, items []models.OrderItem, actor *outbox.ActorRef) ([]models.Commission, error) {
	panic("unimplemented")
}

func (stubCommissionsService) Approve(ctx context.Context, input commissions.ApproveInput) (*models.Commission, error) {
	panic("unimplemented")
}

func (stubCommissionsService) ApproveMany(ctx context.Context, input commissions.ApproveManyInput) ([]models.Commission, error) {
	panic("unimplemented")
}

func (stubCommissionsService) Cancel(ctx context.Context, input commissions.CancelInput) (*models.Commission, error) {
	panic("unimplemented")
}

func (stubCommissionsService) CancelPendingByOrderTx(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, actor *outbox.ActorRef, reason string) error {
	panic("unimplemented")
}

func (stubCommissionsService) GetByID(ctx context.Context, input commissions.GetInput) (*models.Commission, error) {
	panic("unimplemented")
}

func (stubCommissionsService) ListForVendor(ctx context.Context, input commissions.ListInput) ([]models.Commission, error) {
	return nil, nil
}

func (stubCommissionsService) Summarize(ctx context.Context, input commissions.SummarizeInput) (*commissions.Summary, error) {
	return nil, nil
}

type stubPayoutsService struct{}

func (stubPayoutsService) Request(ctx context.Context, input payouts.RequestInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Process(ctx context.Context, input payouts.ProcessInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Complete(ctx context.Context, input payouts.CompleteInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Fail(ctx context.Context, input payouts.FailInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) Cancel(ctx context.Context, input payouts.CancelInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) GetByID(ctx context.Context, input payouts.GetInput) (*models.Payout, error) {
	panic("unimplemented")
}

func (stubPayoutsService) ListForVendor(ctx context.Context, input payouts.ListInput) ([]models.Payout, error) {
	return nil, nil
}

type stubReportsService struct{}

func (stubReportsService) Generate(ctx context.Context, input reports.GenerateInput) ([]models.SalesReport, error) {
	panic("unimplemented")
}

func (stubReportsService) List(ctx context.Context, input reports.ListInput) ([]models.SalesReport, error) {
	return nil, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			SessionTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		stubSessions{},
		Services{
			Auth:        stubAuthService{},
			Catalog:     stubCatalogService{},
			Cart:        stubCartService{},
			Checkout:    stubCheckoutService{},
			Wishlist:    stubWishlistService{},
			Orders:      stubOrdersService{},
			Commissions: stubCommissionsService{},
			Payouts:     stubPayoutsService{},
			Reports:     stubReportsService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	payload := pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
		JTI:    session.NewAccessID(),
	}
	if role == enums.ActorRoleVendor {
		vendorID := uuid.New()
		payload.VendorID = &vendorID
	}
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestStorefrontReadsNeedNoSession(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{
		"/api/v1/catalog/products",
		"/api/v1/catalog/menu",
		"/api/v1/catalog/homepage",
		"/api/v1/catalog/brands",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPrivateGroupSucceedsWithJWT(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleCustomer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for private ping got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	nonAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	nonAdmin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, nonAdmin)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/v1/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestVendorSurfacesAcceptAnySession(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/order-items", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleVendor))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for vendor order items got %d", resp.Code)
	}
}

func TestLivenessIsOpen(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}
