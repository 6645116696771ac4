package manifest

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
)

// assetURLPrefix is prepended to matched file names in manifest values.
const assetURLPrefix = "/products/"

var acceptedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".svg":  true,
}

// placeholderFiles are the fixed per-variant placeholders every generated
// manifest carries. The files must exist in the asset directory.
var placeholderFiles = map[string]string{
	string(domain.VariantAdult):    "placeholder-adult.jpg",
	string(domain.VariantKids):     "placeholder-kids.jpg",
	string(domain.VariantStandard): "placeholder-adult.jpg",
	PlaceholderDefault:             "placeholder-adult.jpg",
}

// MissingAsset identifies one product colour with no matching image file.
type MissingAsset struct {
	Product      string
	ModelKey     domain.ModelKey
	Variant      domain.Variant
	Color        string
	ExpectedBase string
}

// MissingAssetsError aggregates every missing image found during generation.
// Generation is a build-time gate: a single miss fails the whole run, and the
// error lists all of them so one pass fixes everything.
type MissingAssetsError struct {
	Assets       []MissingAsset
	Placeholders []string
}

// Error implements the error interface.
func (e *MissingAssetsError) Error() string {
	var b strings.Builder
	b.WriteString("manifest: missing assets")
	for _, m := range e.Assets {
		fmt.Fprintf(&b, "\n - %s (%s) color %q expected file base %q", m.ModelKey, m.Variant, m.Color, m.ExpectedBase)
	}
	if len(e.Placeholders) > 0 {
		fmt.Fprintf(&b, "\n - placeholders: %s", strings.Join(e.Placeholders, ", "))
	}
	return b.String()
}

// BuildOption customises manifest generation.
type BuildOption func(*builder)

// WithClock overrides the timestamp source, used to make generation
// reproducible in tests.
func WithClock(clock func() time.Time) BuildOption {
	return func(b *builder) {
		if clock != nil {
			b.clock = clock
		}
	}
}

type builder struct {
	clock func() time.Time
}

// Build scans dir for product images matching the expected naming convention
// of every catalog colour and produces the manifest. Matching is
// case-insensitive on the base name with the extension stripped. A key
// resolving to two different files, or any missing image or placeholder, is a
// hard failure.
func Build(products []domain.Product, dir fs.FS, opts ...BuildOption) (Manifest, error) {
	b := builder{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}

	files, err := fs.ReadDir(dir, ".")
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read asset directory: %w", err)
	}

	baseToActual := make(map[string]string)
	for _, entry := range files {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(path.Ext(name))
		if !acceptedExtensions[ext] {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(name, path.Ext(name)))
		baseToActual[base] = name
	}

	entries := make(map[string]string)
	var missing []MissingAsset
	for _, product := range products {
		for _, color := range product.Colors {
			base := domain.ExpectedImageBase(product.ModelKey, product.Variant, color)
			key := domain.ManifestKey(product.ModelKey, product.Variant, color)
			actual, ok := baseToActual[strings.ToLower(base)]
			if !ok {
				missing = append(missing, MissingAsset{
					Product:      product.Title,
					ModelKey:     product.ModelKey,
					Variant:      product.Variant,
					Color:        color,
					ExpectedBase: base,
				})
				continue
			}
			resolved := assetURLPrefix + actual
			if existing, dup := entries[key]; dup && existing != resolved {
				return Manifest{}, fmt.Errorf("manifest: duplicate key %s resolves to both %s and %s", key, existing, resolved)
			}
			entries[key] = resolved
		}
	}

	placeholders := make(map[string]string, len(placeholderFiles))
	var missingPlaceholders []string
	for slot, file := range placeholderFiles {
		if _, err := fs.Stat(dir, file); err != nil {
			missingPlaceholders = append(missingPlaceholders, file)
			continue
		}
		placeholders[slot] = assetURLPrefix + file
	}
	missingPlaceholders = dedupeSorted(missingPlaceholders)

	if len(missing) > 0 || len(missingPlaceholders) > 0 {
		return Manifest{}, &MissingAssetsError{Assets: missing, Placeholders: missingPlaceholders}
	}

	return Manifest{
		GeneratedAt:  b.clock().UTC(),
		Entries:      entries,
		Placeholders: placeholders,
	}, nil
}

func dedupeSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
