package catalog

import "sync/atomic"

// Holder publishes the current catalog to readers and lets a reload replace it
// atomically. Readers that already hold the previous catalog keep using it.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// NewHolder returns a holder primed with cat.
func NewHolder(cat *Catalog) *Holder {
	h := &Holder{}
	h.current.Store(cat)
	return h
}

// Load returns the current catalog.
func (h *Holder) Load() *Catalog {
	return h.current.Load()
}

// Swap installs cat and returns the catalog it replaced.
func (h *Holder) Swap(cat *Catalog) *Catalog {
	return h.current.Swap(cat)
}

// Reload parses the file at path and installs it only when it is valid.
func (h *Holder) Reload(path string) (*Catalog, error) {
	cat, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	h.current.Store(cat)
	return cat, nil
}
