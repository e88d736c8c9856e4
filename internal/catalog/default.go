package catalog

import (
	_ "embed"
	"fmt"
	"sync"
)

//go:embed default_catalog.json
var defaultCatalogJSON []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog. It panics if the embedded document is
// invalid, which is a build defect rather than a runtime condition.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Parse(defaultCatalogJSON, FormatJSON)
		if err != nil {
			panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// DefaultDocument returns the raw built-in catalog document.
func DefaultDocument() []byte {
	out := make([]byte, len(defaultCatalogJSON))
	copy(out, defaultCatalogJSON)
	return out
}
