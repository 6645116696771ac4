// Package manifest builds and resolves the generated product image manifest:
// a precomputed mapping from (model, variant, colour) to a static asset path,
// produced offline by scanning the image directory against the catalog.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
)

// PlaceholderDefault keys the fallback used when a variant has no placeholder.
const PlaceholderDefault = "default"

// Manifest is the serialised lookup table shipped alongside the server.
type Manifest struct {
	GeneratedAt  time.Time         `json:"generatedAt"`
	Entries      map[string]string `json:"entries"`
	Placeholders map[string]string `json:"placeholders"`
}

// Load reads a manifest file from disk.
func Load(path string) (Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return m, nil
}

// WriteFile serialises the manifest to path, creating parent directories.
// Map keys are emitted sorted, so repeated generation over the same inputs is
// byte-identical apart from the timestamp.
func (m Manifest) WriteFile(path string) error {
	payload, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	payload = append(payload, '\n')

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("manifest: create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return nil
}

// Lookup returns the manifest entry for a product colour.
func (m Manifest) Lookup(product domain.Product, color string) (string, bool) {
	key := domain.ManifestKey(product.ModelKey, product.Variant, color)
	path, ok := m.Entries[key]
	return path, ok
}

// Placeholder returns the placeholder path for a variant, falling back to the
// default placeholder.
func (m Manifest) Placeholder(variant domain.Variant) (string, bool) {
	if path, ok := m.Placeholders[string(variant)]; ok && path != "" {
		return path, true
	}
	if path, ok := m.Placeholders[PlaceholderDefault]; ok && path != "" {
		return path, true
	}
	return "", false
}

// Resolve applies the single fallback order used everywhere an image is
// rendered: manifest entry, then variant placeholder, then default
// placeholder. ok is false only when no placeholder exists either, the
// explicit unavailable state. Pure over its inputs.
func Resolve(m Manifest, product domain.Product, color string) (string, bool) {
	if path, ok := m.Lookup(product, color); ok {
		return path, true
	}
	return m.Placeholder(product.Variant)
}
