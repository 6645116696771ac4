package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/manifest"
	"github.com/deimos91-cmyk/felpe-scuola/internal/platform/requestctx"
)

// ErrCatalogProductNotFound indicates no catalog product matches the model and variant.
var ErrCatalogProductNotFound = errors.New("catalog: product not found")

// CatalogServiceDeps wires the static catalog and the generated manifest.
type CatalogServiceDeps struct {
	Products []domain.Product
	Manifest manifest.Manifest
	Logger   func(context.Context) *zap.Logger
}

type catalogService struct {
	products []domain.Product
	manifest manifest.Manifest
	logger   func(context.Context) *zap.Logger
}

// NewCatalogService constructs a CatalogService over the given catalog snapshot.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if len(deps.Products) == 0 {
		return nil, errors.New("catalog: products are required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = requestctx.Logger
	}

	products := append([]domain.Product(nil), deps.Products...)
	return &catalogService{
		products: products,
		manifest: deps.Manifest,
		logger:   logger,
	}, nil
}

// Products returns the catalog in display order.
func (s *catalogService) Products() []domain.Product {
	out := make([]domain.Product, len(s.products))
	copy(out, s.products)
	return out
}

// FindProduct locates a product by model key and variant.
func (s *catalogService) FindProduct(model domain.ModelKey, variant domain.Variant) (domain.Product, error) {
	for _, product := range s.products {
		if product.ModelKey == model && product.Variant == variant {
			return product, nil
		}
	}
	return domain.Product{}, fmt.Errorf("%w: %s/%s", ErrCatalogProductNotFound, model, variant)
}

// ResolveImage maps a product colour to its asset path via the manifest,
// falling back to placeholders. A miss on the real entry is logged once per
// lookup so missing assets surface in operations, not just as placeholder
// images.
func (s *catalogService) ResolveImage(ctx context.Context, product domain.Product, color string) ImageResolution {
	key := domain.ManifestKey(product.ModelKey, product.Variant, color)

	if path, ok := s.manifest.Lookup(product, color); ok {
		return ImageResolution{Path: path, Key: key}
	}

	s.logger(ctx).Warn("product image missing from manifest",
		zap.String("manifest_key", key),
		zap.String("model", string(product.ModelKey)),
		zap.String("color", color),
	)

	if path, ok := s.manifest.Placeholder(product.Variant); ok {
		return ImageResolution{Path: path, Placeholder: true, Key: key}
	}
	return ImageResolution{Unavailable: true, Key: key}
}

// PlaceholderImage returns the placeholder path for the product's variant.
// The browser-side image fallback uses it when an asset fails to load.
func (s *catalogService) PlaceholderImage(product domain.Product) (string, bool) {
	return s.manifest.Placeholder(product.Variant)
}

// PreorderURL builds the confirmation-view link carrying a full selection.
// Size is included only for sized products; qty is clamped.
func (s *catalogService) PreorderURL(product domain.Product, color, size string, qty int) string {
	query := url.Values{}
	query.Set("productType", product.Title)
	query.Set("modelKey", string(product.ModelKey))
	query.Set("variant", string(product.Variant))
	query.Set("color", color)
	query.Set("qty", strconv.Itoa(domain.ClampQtyInt(qty)))
	if product.HasSizes() && size != "" {
		query.Set("size", size)
	}
	return "/preorder?" + query.Encode()
}
