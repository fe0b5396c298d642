package specialty

import (
	"sync/atomic"

	id "medgate/pkg/domain"
)

// Registry holds the active catalog. Readers never observe a partially built
// table: a reload builds a new Catalog and Swap publishes it in one step.
type Registry struct {
	current atomic.Pointer[Catalog]
}

func NewRegistry(initial *Catalog) *Registry {
	r := &Registry{}
	r.current.Store(initial)
	return r
}

func (r *Registry) Current() *Catalog {
	return r.current.Load()
}

// Swap installs next and returns the previous catalog. A nil next is ignored.
func (r *Registry) Swap(next *Catalog) *Catalog {
	if next == nil {
		return r.current.Load()
	}
	return r.current.Swap(next)
}

func (r *Registry) Resolve(name string) Config {
	return r.Current().Resolve(name)
}

func (r *Registry) CanonicalName(name string) string {
	return r.Current().CanonicalName(name)
}

func (r *Registry) ResolveDashboard(role id.Role, specialtyName string) Dashboard {
	return r.Current().ResolveDashboard(role, specialtyName)
}

func (r *Registry) Names() []string {
	return r.Current().Names()
}
