// Package services holds the application logic between the HTTP handlers and
// the persistence layer.
package services

import (
	"context"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/repositories"
)

// ImageResolution is the outcome of resolving a product image through the
// asset manifest. Exactly one of the three states holds: a real entry, a
// placeholder, or unavailable.
type ImageResolution struct {
	// Path is the asset URL, empty when Unavailable.
	Path string
	// Placeholder is true when Path points at a variant placeholder rather
	// than the colour's own image.
	Placeholder bool
	// Unavailable is true when neither an entry nor any placeholder exists.
	Unavailable bool
	// Key is the manifest key that was looked up.
	Key string
}

// CatalogService exposes the static product catalog and manifest-backed image
// resolution. All operations are pure reads over data fixed at startup.
type CatalogService interface {
	Products() []domain.Product
	FindProduct(model domain.ModelKey, variant domain.Variant) (domain.Product, error)
	ResolveImage(ctx context.Context, product domain.Product, color string) ImageResolution
	PlaceholderImage(product domain.Product) (string, bool)
	PreorderURL(product domain.Product, color, size string, qty int) string
}

// SubmitOrderCommand carries the raw order-entry form values. Qty stays a
// string so the service owns the clamping rules.
type SubmitOrderCommand struct {
	ModelKey  domain.ModelKey
	Variant   domain.Variant
	Color     string
	Size      string
	Qty       string
	Name      string
	ClassName string
	Contact   string
	Notes     string
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	OnlyNew bool
}

// OrderService owns preorder submission and admin triage.
type OrderService interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (domain.Order, error)
	List(ctx context.Context, filter OrderListFilter) ([]domain.Order, error)
	MarkSeen(ctx context.Context, orderID string) error
	Delete(ctx context.Context, orderID string) error
	DeleteAll(ctx context.Context) (repositories.DeleteAllResult, error)
	Watch(ctx context.Context) (repositories.OrderFeed, error)
}
