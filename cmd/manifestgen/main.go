// Command manifestgen scans the product image directory against the catalog
// and writes the asset manifest consumed by the server. It runs at build
// time; a missing image fails the build with a listing of every gap.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/deimos91-cmyk/felpe-scuola/internal/domain"
	"github.com/deimos91-cmyk/felpe-scuola/internal/manifest"
)

func main() {
	assetsDir := flag.String("assets", "public/products", "directory holding the product images")
	outPath := flag.String("out", "assets-manifest.json", "path of the generated manifest")
	flag.Parse()

	if err := run(*assetsDir, *outPath); err != nil {
		fmt.Fprintf(os.Stderr, "manifestgen: %v\n", err)
		os.Exit(1)
	}
}

func run(assetsDir, outPath string) error {
	info, err := os.Stat(assetsDir)
	if err != nil {
		return fmt.Errorf("assets directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("assets path %s is not a directory", assetsDir)
	}

	m, err := manifest.Build(domain.Products(), os.DirFS(assetsDir))
	if err != nil {
		var missing *manifest.MissingAssetsError
		if errors.As(err, &missing) {
			return fmt.Errorf("%d image(s) missing from %s:\n%v", len(missing.Assets)+len(missing.Placeholders), assetsDir, missing)
		}
		return err
	}

	if err := m.WriteFile(outPath); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d entries, %d placeholders\n", outPath, len(m.Entries), len(m.Placeholders))
	return nil
}
