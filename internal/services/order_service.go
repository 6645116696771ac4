package services

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/requestctx"
	"github.com/deimos91-cmyk/felpe-scuola/internal/repositories"
)

// ErrOrderInvalidInput indicates the submission failed validation.
var ErrOrderInvalidInput = errors.New("order: invalid input")

// ErrOrderNotFound indicates the referenced order does not exist.
var ErrOrderNotFound = errors.New("order: not found")

// ErrOrderUnavailable indicates the persistence backend could not complete the request.
var ErrOrderUnavailable = errors.New("order: backend unavailable")

const (
	maxOrderNameLength    = 120
	maxOrderClassLength   = 40
	maxOrderContactLength = 160
	maxOrderNotesLength   = 500
)

// OrderServiceDeps wires the order repository and catalog lookup.
type OrderServiceDeps struct {
	Repository  repositories.OrderRepository
	Catalog     CatalogService
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context) *zap.Logger
}

type orderService struct {
	repo     repositories.OrderRepository
	catalog  CatalogService
	now      func() time.Time
	newID    func() string
	logger   func(context.Context) *zap.Logger
	sanitize *bluemonday.Policy
}

// NewOrderService constructs an OrderService with the provided dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Repository == nil {
		return nil, errors.New("order: repository is required")
	}
	if deps.Catalog == nil {
		return nil, errors.New("order: catalog service is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	logger := deps.Logger
	if logger == nil {
		logger = requestctx.Logger
	}

	return &orderService{
		repo:     deps.Repository,
		catalog:  deps.Catalog,
		now:      func() time.Time { return clock().UTC() },
		newID:    idGen,
		logger:   logger,
		sanitize: bluemonday.StrictPolicy(),
	}, nil
}

// Submit validates, sanitises, and persists a preorder submission.
func (s *orderService) Submit(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error) {
	product, err := s.catalog.FindProduct(cmd.ModelKey, cmd.Variant)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: unknown product %s/%s", ErrOrderInvalidInput, cmd.ModelKey, cmd.Variant)
	}

	color := strings.TrimSpace(cmd.Color)
	if !containsString(product.Colors, color) {
		return domain.Order{}, fmt.Errorf("%w: colour %q not offered for %s", ErrOrderInvalidInput, color, product.ModelKey)
	}

	size := strings.TrimSpace(cmd.Size)
	if product.HasSizes() {
		if !containsString(product.Sizes, size) {
			return domain.Order{}, fmt.Errorf("%w: size %q not offered for %s", ErrOrderInvalidInput, size, product.ModelKey)
		}
	} else {
		size = ""
	}

	name := s.cleanText(cmd.Name, maxOrderNameLength)
	if name == "" {
		return domain.Order{}, fmt.Errorf("%w: name is required", ErrOrderInvalidInput)
	}
	className := s.cleanText(cmd.ClassName, maxOrderClassLength)
	if className == "" {
		return domain.Order{}, fmt.Errorf("%w: class is required", ErrOrderInvalidInput)
	}
	contact := s.cleanText(cmd.Contact, maxOrderContactLength)
	if contact == "" {
		return domain.Order{}, fmt.Errorf("%w: contact is required", ErrOrderInvalidInput)
	}
	notes := s.cleanText(cmd.Notes, maxOrderNotesLength)

	order := domain.Order{
		ID:          s.newID(),
		ProductType: product.Title,
		ModelKey:    product.ModelKey,
		Variant:     product.Variant,
		Color:       color,
		Size:        size,
		Qty:         domain.ClampQty(cmd.Qty),
		Name:        name,
		ClassName:   className,
		Contact:     contact,
		Notes:       notes,
		Status:      domain.OrderStatusNew,
		CreatedAt:   s.now(),
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		return domain.Order{}, s.mapRepositoryError(err)
	}

	s.logger(ctx).Info("order submitted",
		zap.String("order_id", order.ID),
		zap.String("model", string(order.ModelKey)),
		zap.String("variant", string(order.Variant)),
		zap.Int("qty", order.Qty),
	)
	return order, nil
}

// List returns orders for the admin view, optionally hiding triaged ones.
func (s *orderService) List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	if !filter.OnlyNew {
		return orders, nil
	}

	filtered := orders[:0]
	for _, order := range orders {
		if order.EffectiveStatus() == domain.OrderStatusNew {
			filtered = append(filtered, order)
		}
	}
	return filtered, nil
}

// MarkSeen transitions an order from new to seen.
func (s *orderService) MarkSeen(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if err := s.repo.UpdateStatus(ctx, orderID, domain.OrderStatusSeen); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

// Delete removes a single order.
func (s *orderService) Delete(ctx context.Context, orderID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return fmt.Errorf("%w: order id is required", ErrOrderInvalidInput)
	}
	if err := s.repo.Delete(ctx, orderID); err != nil {
		return s.mapRepositoryError(err)
	}
	return nil
}

// DeleteAll wipes the order collection. Progress before a failure is kept and
// reported, not rolled back.
func (s *orderService) DeleteAll(ctx context.Context) (repositories.DeleteAllResult, error) {
	result, err := s.repo.DeleteAll(ctx)
	if err != nil {
		s.logger(ctx).Error("bulk delete aborted",
			zap.Int("deleted", result.Deleted),
			zap.Int("batches", result.Batches),
			zap.Error(err),
		)
		return result, s.mapRepositoryError(err)
	}

	s.logger(ctx).Info("bulk delete completed",
		zap.Int("deleted", result.Deleted),
		zap.Int("batches", result.Batches),
	)
	return result, nil
}

// Watch opens a live order feed.
func (s *orderService) Watch(ctx context.Context) (repositories.OrderFeed, error) {
	feed, err := s.repo.Subscribe(ctx)
	if err != nil {
		return nil, s.mapRepositoryError(err)
	}
	return feed, nil
}

// cleanText strips markup, unescapes entities introduced by the sanitiser,
// collapses whitespace, and caps the length.
func (s *orderService) cleanText(value string, limit int) string {
	value = s.sanitize.Sanitize(value)
	value = html.UnescapeString(value)
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if len(runes) > limit {
		value = string(runes[:limit])
	}
	return value
}

func (s *orderService) mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
		}
	}
	return err
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
