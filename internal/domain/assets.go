package domain

import (
	"strings"
	"unicode"
)

// colorImageRenames maps catalog colour names to the spelling used by the
// image files on disk. Applied before normalisation for every model except
// TENERIFE, whose files were named after the catalog directly.
var colorImageRenames = map[string]string{
	"Blu-Navy": "Blue-Navy",
}

// RenameColorForModel applies the image rename table for the given model.
func RenameColorForModel(model ModelKey, color string) string {
	if model == ModelTenerife {
		return color
	}
	if renamed, ok := colorImageRenames[color]; ok {
		return renamed
	}
	return color
}

// CanonicalColor reduces a colour name to its manifest form: rename table,
// trim, lowercase, and runs of whitespace or underscores collapsed to a
// single hyphen. Pure: the same inputs always yield the same key.
func CanonicalColor(model ModelKey, color string) string {
	renamed := RenameColorForModel(model, color)
	parts := strings.FieldsFunc(renamed, func(r rune) bool {
		return unicode.IsSpace(r) || r == '_'
	})
	return strings.ToLower(strings.Join(parts, "-"))
}

// ManifestKey builds the composite lookup key for a product colour.
func ManifestKey(model ModelKey, variant Variant, color string) string {
	return string(model) + "__" + string(variant) + "__" + CanonicalColor(model, color)
}

// ExpectedImageBase derives the file base name (extension stripped) an image
// is expected to carry for the given product colour. The kids cuts of
// KANGAROO and WHALE were photographed separately and carry a -Kids- infix.
func ExpectedImageBase(model ModelKey, variant Variant, color string) string {
	renamed := RenameColorForModel(model, color)
	if variant == VariantKids && (model == ModelKangaroo || model == ModelWhale) {
		return string(model) + "-Kids-" + renamed
	}
	return string(model) + "-" + renamed
}
