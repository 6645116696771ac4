package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/observability"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/session"
	"github.com/deimos91-cmyk/felpe-scuola/internal/repositories"
	"github.com/deimos91-cmyk/felpe-scuola/internal/services"
	"go.uber.org/zap"
)

type stubAdminOrderService struct {
	listFn      func(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error)
	markSeenFn  func(ctx context.Context, orderID string) error
	deleteFn    func(ctx context.Context, orderID string) error
	deleteAllFn func(ctx context.Context) (repositories.DeleteAllResult, error)
	watchFn     func(ctx context.Context) (repositories.OrderFeed, error)
}

func (s *stubAdminOrderService) Submit(context.Context, services.SubmitOrderCommand) (domain.Order, error) {
	return domain.Order{}, nil
}

func (s *stubAdminOrderService) List(ctx context.Context, filter services.OrderListFilter) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return nil, nil
}

func (s *stubAdminOrderService) MarkSeen(ctx context.Context, orderID string) error {
	if s.markSeenFn != nil {
		return s.markSeenFn(ctx, orderID)
	}
	return nil
}

func (s *stubAdminOrderService) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubAdminOrderService) DeleteAll(ctx context.Context) (repositories.DeleteAllResult, error) {
	if s.deleteAllFn != nil {
		return s.deleteAllFn(ctx)
	}
	return repositories.DeleteAllResult{}, nil
}

func (s *stubAdminOrderService) Watch(ctx context.Context) (repositories.OrderFeed, error) {
	if s.watchFn != nil {
		return s.watchFn(ctx)
	}
	return nil, nil
}

type stubOrderFeed struct {
	updates  chan []domain.Order
	err      error
	stopOnce sync.Once
	stopped  chan struct{}
}

func newStubOrderFeed() *stubOrderFeed {
	return &stubOrderFeed{
		updates: make(chan []domain.Order, 1),
		stopped: make(chan struct{}),
	}
}

func (f *stubOrderFeed) Updates() <-chan []domain.Order { return f.updates }

func (f *stubOrderFeed) Err() error { return f.err }

func (f *stubOrderFeed) Stop() {
	f.stopOnce.Do(func() { close(f.stopped) })
}

func newAdminRouter(t *testing.T, orders services.OrderService) (http.Handler, *http.Cookie) {
	t.Helper()

	sessions, err := session.NewManager(session.Config{HashKey: testSessionHashKey})
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}

	rec := httptest.NewRecorder()
	if err := sessions.Issue(rec, session.User{UID: "admin-1", Email: "admin@example.com"}); err != nil {
		t.Fatalf("issue session: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one session cookie, got %d", len(cookies))
	}

	admin := NewAdminHandlers(orders, sessions, nil, nil)
	// The same middleware chain as production, so streaming still works
	// through the logging wrapper.
	router := NewRouter(
		WithMiddlewares(
			observability.InjectLoggerMiddleware(zap.NewNop()),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(zap.NewNop()),
		),
		WithAdminAPI(admin.Routes),
	)
	return router, cookies[0]
}

func testOrder(id string) domain.Order {
	return domain.Order{
		ID:          id,
		ProductType: "Felpa KANGAROO",
		ModelKey:    domain.ModelKangaroo,
		Variant:     domain.VariantAdult,
		Color:       "Nero",
		Size:        "M",
		Qty:         2,
		Name:        "Anna Bianchi",
		ClassName:   "3B",
		Contact:     "anna@example.com",
		Status:      domain.OrderStatusNew,
		CreatedAt:   time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestAdminLoginRejectsMalformedBody(t *testing.T) {
	router, _ := newAdminRouter(t, &stubAdminOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminLogoutClearsCookie(t *testing.T) {
	router, cookie := newAdminRouter(t, &stubAdminOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 {
		t.Fatalf("expected an expiring session cookie, got %+v", cookies)
	}
}

func TestAdminOrdersRequireSession(t *testing.T) {
	router, _ := newAdminRouter(t, &stubAdminOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without session, got %d", rec.Code)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error payload: %v", err)
	}
	if payload["error"] != "unauthorized" {
		t.Fatalf("unexpected error code: %v", payload["error"])
	}
}

func TestAdminListOrders(t *testing.T) {
	var gotFilter services.OrderListFilter
	orders := &stubAdminOrderService{
		listFn: func(_ context.Context, filter services.OrderListFilter) ([]domain.Order, error) {
			gotFilter = filter
			return []domain.Order{testOrder("order-2"), testOrder("order-1")}, nil
		},
	}
	router, cookie := newAdminRouter(t, orders)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders?only_new=1", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !gotFilter.OnlyNew {
		t.Fatal("expected only_new=1 to set the filter")
	}

	var payload orderListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(payload.Orders))
	}
	if payload.Orders[0].ID != "order-2" {
		t.Fatalf("unexpected first order: %+v", payload.Orders[0])
	}
	if payload.Orders[0].Status != "new" {
		t.Fatalf("unexpected status: %s", payload.Orders[0].Status)
	}
}

func TestAdminMarkSeen(t *testing.T) {
	var gotID string
	orders := &stubAdminOrderService{
		markSeenFn: func(_ context.Context, orderID string) error {
			gotID = orderID
			return nil
		},
	}
	router, cookie := newAdminRouter(t, orders)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/orders/order-7/seen", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "order-7" {
		t.Fatalf("unexpected order id: %q", gotID)
	}
}

func TestAdminDeleteOrderNotFound(t *testing.T) {
	orders := &stubAdminOrderService{
		deleteFn: func(context.Context, string) error {
			return services.ErrOrderNotFound
		},
	}
	router, cookie := newAdminRouter(t, orders)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders/missing", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAdminDeleteAll(t *testing.T) {
	orders := &stubAdminOrderService{
		deleteAllFn: func(context.Context) (repositories.DeleteAllResult, error) {
			return repositories.DeleteAllResult{Deleted: 901, Batches: 3}, nil
		},
	}
	router, cookie := newAdminRouter(t, orders)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["deleted"] != 901 || payload["batches"] != 3 {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestAdminDeleteAllPartialFailure(t *testing.T) {
	orders := &stubAdminOrderService{
		deleteAllFn: func(context.Context) (repositories.DeleteAllResult, error) {
			return repositories.DeleteAllResult{Deleted: 450, Batches: 1}, services.ErrOrderUnavailable
		},
	}
	router, cookie := newAdminRouter(t, orders)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/orders", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "450") {
		t.Fatalf("expected partial progress in payload: %s", rec.Body.String())
	}
}

func TestAdminStreamOrders(t *testing.T) {
	feed := newStubOrderFeed()
	orders := &stubAdminOrderService{
		watchFn: func(context.Context) (repositories.OrderFeed, error) {
			return feed, nil
		},
	}
	router, cookie := newAdminRouter(t, orders)

	srv := httptest.NewServer(router)
	defer srv.Close()

	feed.updates <- []domain.Order{testOrder("order-9")}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/admin/orders/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.AddCookie(cookie)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type: %s", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var data string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	if data == "" {
		t.Fatalf("no data line received: %v", scanner.Err())
	}

	var payload orderListResponse
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("decode event payload: %v", err)
	}
	if len(payload.Orders) != 1 || payload.Orders[0].ID != "order-9" {
		t.Fatalf("unexpected event payload: %s", data)
	}

	cancel()
	resp.Body.Close()

	select {
	case <-feed.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("feed was not stopped after client disconnect")
	}
}
