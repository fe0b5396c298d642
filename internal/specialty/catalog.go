package specialty

import (
	"fmt"
	"sort"
	"sync"

	pstrings "medgate/pkg/platform/strings"
)

// Catalog is an immutable lookup table keyed by folded name and code.
type Catalog struct {
	byKey map[string]*Config
	names []string
}

// NewCatalog validates the entries and indexes them. Names and codes are
// matched case- and accent-insensitively, so two entries may not fold to the
// same key.
func NewCatalog(configs ...Config) (*Catalog, error) {
	c := &Catalog{byKey: make(map[string]*Config, 2*len(configs))}
	for i := range configs {
		cfg := configs[i].clone()
		if cfg.Name == "" || cfg.Code == "" {
			return nil, fmt.Errorf("specialty #%d: name and code are required", i)
		}
		if err := validateForm(cfg); err != nil {
			return nil, err
		}
		cfg.Dashboard.Metrics = pstrings.SortedSet(cfg.Dashboard.Metrics...)
		cfg.Dashboard.Actions = pstrings.SortedSet(cfg.Dashboard.Actions...)
		for _, key := range []string{pstrings.Fold(cfg.Name), pstrings.Fold(cfg.Code)} {
			if existing, dup := c.byKey[key]; dup && existing != &cfg {
				return nil, fmt.Errorf("specialty key %q used by %q and %q", key, existing.Name, cfg.Name)
			}
			c.byKey[key] = &cfg
		}
		c.names = append(c.names, cfg.Name)
	}
	sort.Strings(c.names)
	return c, nil
}

func validateForm(cfg Config) error {
	if cfg.EncounterForm == nil {
		return nil
	}
	for _, step := range cfg.EncounterForm.Steps {
		for _, f := range step.Fields {
			if f.Key == "" || !f.Type.IsValid() {
				return fmt.Errorf("specialty %s: invalid field %q of type %q", cfg.Name, f.Key, f.Type)
			}
			if f.Type == FieldSelect && len(f.Options) == 0 {
				return fmt.Errorf("specialty %s: select field %q has no options", cfg.Name, f.Key)
			}
		}
	}
	return nil
}

// Resolve is total: unknown or empty input yields Unknown().
func (c *Catalog) Resolve(name string) Config {
	if cfg, ok := c.Lookup(name); ok {
		return cfg
	}
	return Unknown()
}

// Lookup reports whether name (or code) is in the catalog.
func (c *Catalog) Lookup(name string) (Config, bool) {
	if c == nil {
		return Config{}, false
	}
	cfg, ok := c.byKey[pstrings.Fold(name)]
	if !ok {
		return Config{}, false
	}
	return cfg.clone(), true
}

// CanonicalName maps any accepted spelling to the catalog name, or "" when unknown.
func (c *Catalog) CanonicalName(name string) string {
	if cfg, ok := c.Lookup(name); ok {
		return cfg.Name
	}
	return ""
}

// Names lists catalog entries in sorted order.
func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

var defaultCatalog = sync.OnceValue(func() *Catalog {
	c, err := NewCatalog(builtin()...)
	if err != nil {
		panic(fmt.Sprintf("specialty: built-in catalog is invalid: %v", err))
	}
	return c
})

// Default returns the built-in catalog, constructed on first use.
func Default() *Catalog {
	return defaultCatalog()
}
