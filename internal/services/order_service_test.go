package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/repositories"
)

type stubOrderRepository struct {
	insertFn    func(context.Context, domain.Order) error
	listFn      func(context.Context) ([]domain.Order, error)
	updateFn    func(context.Context, string, domain.OrderStatus) error
	deleteFn    func(context.Context, string) error
	deleteAllFn func(context.Context) (repositories.DeleteAllResult, error)
	subscribeFn func(context.Context) (repositories.OrderFeed, error)

	inserted []domain.Order
	updates  []string
}

func (s *stubOrderRepository) Insert(ctx context.Context, order domain.Order) error {
	s.inserted = append(s.inserted, order)
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

func (s *stubOrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	s.updates = append(s.updates, orderID)
	if s.updateFn != nil {
		return s.updateFn(ctx, orderID, status)
	}
	return nil
}

func (s *stubOrderRepository) Delete(ctx context.Context, orderID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, orderID)
	}
	return nil
}

func (s *stubOrderRepository) DeleteAll(ctx context.Context) (repositories.DeleteAllResult, error) {
	if s.deleteAllFn != nil {
		return s.deleteAllFn(ctx)
	}
	return repositories.DeleteAllResult{}, nil
}

func (s *stubOrderRepository) Subscribe(ctx context.Context) (repositories.OrderFeed, error) {
	if s.subscribeFn != nil {
		return s.subscribeFn(ctx)
	}
	return nil, errors.New("not implemented")
}

type stubRepositoryError struct {
	notFound    bool
	unavailable bool
}

func (e stubRepositoryError) Error() string       { return "stub repository error" }
func (e stubRepositoryError) IsNotFound() bool    { return e.notFound }
func (e stubRepositoryError) IsUnavailable() bool { return e.unavailable }

func newTestOrderService(t *testing.T, repo repositories.OrderRepository) OrderService {
	t.Helper()
	catalog := newTestCatalogService(t)
	svc, err := NewOrderService(OrderServiceDeps{
		Repository:  repo,
		Catalog:     catalog,
		Clock:       func() time.Time { return time.Date(2025, time.September, 1, 10, 0, 0, 0, time.UTC) },
		IDGenerator: func() string { return "order-1" },
	})
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func validSubmit() SubmitOrderCommand {
	return SubmitOrderCommand{
		ModelKey:  domain.ModelKangaroo,
		Variant:   domain.VariantAdult,
		Color:     "Blu-Navy",
		Size:      "M",
		Qty:       "2",
		Name:      "Mario Rossi",
		ClassName: "3B",
		Contact:   "mario@example.com",
		Notes:     "ritiro in classe",
	}
}

func TestOrderServiceSubmit(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)

	order, err := svc.Submit(context.Background(), validSubmit())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if order.ID != "order-1" {
		t.Errorf("unexpected id: %s", order.ID)
	}
	if order.ProductType != "Felpa KANGAROO" {
		t.Errorf("unexpected product type: %s", order.ProductType)
	}
	if order.Qty != 2 {
		t.Errorf("unexpected qty: %d", order.Qty)
	}
	if order.Status != domain.OrderStatusNew {
		t.Errorf("unexpected status: %s", order.Status)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
}

func TestOrderServiceSubmitClampsQty(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)

	cases := map[string]int{
		"0":    1,
		"-3":   1,
		"11":   10,
		"abc":  1,
		"":     1,
		"7":    7,
	}
	for raw, want := range cases {
		cmd := validSubmit()
		cmd.Qty = raw
		order, err := svc.Submit(context.Background(), cmd)
		if err != nil {
			t.Fatalf("submit qty=%q: %v", raw, err)
		}
		if order.Qty != want {
			t.Errorf("qty %q: expected %d, got %d", raw, want, order.Qty)
		}
	}
}

func TestOrderServiceSubmitSanitisesText(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)

	cmd := validSubmit()
	cmd.Name = "  Mario <script>alert(1)</script> Rossi  "
	cmd.Notes = "<b>grazie</b>\n\nmille"

	order, err := svc.Submit(context.Background(), cmd)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if strings.Contains(order.Name, "<") || strings.Contains(order.Name, "script") {
		t.Errorf("markup survived sanitisation: %q", order.Name)
	}
	if order.Name != "Mario Rossi" {
		t.Errorf("unexpected name: %q", order.Name)
	}
	if order.Notes != "grazie mille" {
		t.Errorf("unexpected notes: %q", order.Notes)
	}
}

func TestOrderServiceSubmitValidation(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)
	ctx := context.Background()

	mutations := []func(*SubmitOrderCommand){
		func(c *SubmitOrderCommand) { c.Variant = domain.VariantKids },
		func(c *SubmitOrderCommand) { c.Color = "Viola" },
		func(c *SubmitOrderCommand) { c.Size = "XXXL" },
		func(c *SubmitOrderCommand) { c.Name = "   " },
		func(c *SubmitOrderCommand) { c.ClassName = "" },
		func(c *SubmitOrderCommand) { c.Contact = "" },
	}
	for i, mutate := range mutations {
		cmd := validSubmit()
		mutate(&cmd)
		if _, err := svc.Submit(ctx, cmd); !errors.Is(err, ErrOrderInvalidInput) {
			t.Errorf("case %d: expected ErrOrderInvalidInput, got %v", i, err)
		}
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("invalid submissions must not reach the repository, got %d inserts", len(repo.inserted))
	}
}

func TestOrderServiceSubmitSizelessProductDropsSize(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)

	cmd := validSubmit()
	cmd.ModelKey = domain.ModelVolcano
	cmd.Variant = domain.VariantStandard
	cmd.Color = "Standard"
	cmd.Size = "M"

	order, err := svc.Submit(context.Background(), cmd)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if order.Size != "" {
		t.Errorf("expected empty size for sizeless product, got %q", order.Size)
	}
}

func TestOrderServiceListOnlyNew(t *testing.T) {
	repo := &stubOrderRepository{}
	repo.listFn = func(context.Context) ([]domain.Order, error) {
		return []domain.Order{
			{ID: "a", Status: domain.OrderStatusSeen},
			{ID: "b", Status: domain.OrderStatusNew},
			{ID: "c"}, // legacy document without status
		}, nil
	}
	svc := newTestOrderService(t, repo)

	orders, err := svc.List(context.Background(), OrderListFilter{OnlyNew: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 new orders, got %d", len(orders))
	}
	if orders[0].ID != "b" || orders[1].ID != "c" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
}

func TestOrderServiceMarkSeen(t *testing.T) {
	repo := &stubOrderRepository{}
	svc := newTestOrderService(t, repo)

	if err := svc.MarkSeen(context.Background(), "order-9"); err != nil {
		t.Fatalf("mark seen: %v", err)
	}
	if len(repo.updates) != 1 || repo.updates[0] != "order-9" {
		t.Fatalf("unexpected update calls: %v", repo.updates)
	}

	if err := svc.MarkSeen(context.Background(), "  "); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput for blank id, got %v", err)
	}
}

func TestOrderServiceMapsRepositoryErrors(t *testing.T) {
	repo := &stubOrderRepository{}
	repo.updateFn = func(context.Context, string, domain.OrderStatus) error {
		return stubRepositoryError{notFound: true}
	}
	repo.listFn = func(context.Context) ([]domain.Order, error) {
		return nil, stubRepositoryError{unavailable: true}
	}
	svc := newTestOrderService(t, repo)
	ctx := context.Background()

	if err := svc.MarkSeen(ctx, "ghost"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	if _, err := svc.List(ctx, OrderListFilter{}); !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("expected ErrOrderUnavailable, got %v", err)
	}
}

func TestOrderServiceDeleteAllReportsPartialProgress(t *testing.T) {
	repo := &stubOrderRepository{}
	repo.deleteAllFn = func(context.Context) (repositories.DeleteAllResult, error) {
		return repositories.DeleteAllResult{Deleted: 450, Batches: 1}, stubRepositoryError{unavailable: true}
	}
	svc := newTestOrderService(t, repo)

	result, err := svc.DeleteAll(context.Background())
	if !errors.Is(err, ErrOrderUnavailable) {
		t.Fatalf("expected ErrOrderUnavailable, got %v", err)
	}
	if result.Deleted != 450 || result.Batches != 1 {
		t.Fatalf("partial progress must survive the error, got %+v", result)
	}
}
