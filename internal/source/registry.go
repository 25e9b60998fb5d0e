package source

import (
	"strings"
	"sync"

	"github.com/sells-group/price-truth/internal/fetcher"
)

// Registry maps country codes to the adapters available there. It is
// populated once at startup and read concurrently afterwards.
type Registry struct {
	mu       sync.RWMutex
	byMarket map[string][]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMarket: make(map[string][]Adapter)}
}

// Register adds an adapter to a country's source set. Registration order
// is preserved; the pipeline's maxSources cap keeps the front of the list.
func (r *Registry) Register(countryCode string, a Adapter) {
	cc := strings.ToUpper(countryCode)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byMarket[cc] = append(r.byMarket[cc], a)
}

// AdaptersFor returns up to max adapters for the country. max <= 0 means
// all of them.
func (r *Registry) AdaptersFor(countryCode string, max int) []Adapter {
	cc := strings.ToUpper(countryCode)
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapters := r.byMarket[cc]
	if max > 0 && len(adapters) > max {
		adapters = adapters[:max]
	}
	out := make([]Adapter, len(adapters))
	copy(out, adapters)
	return out
}

// Countries lists the registered country codes.
func (r *Registry) Countries() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byMarket))
	for cc := range r.byMarket {
		out = append(out, cc)
	}
	return out
}

// DefaultRegistry wires the built-in retailer adapters for the supported
// markets, all sharing one fetcher.
func DefaultRegistry(f fetcher.Fetcher) *Registry {
	r := NewRegistry()

	for _, cc := range []string{"DE", "PL", "SE", "US", "GB"} {
		r.Register(cc, NewAmazon(cc, f))
		r.Register(cc, NewEbay(cc, f))
	}
	r.Register("DE", NewIdealo(f))
	r.Register("PL", NewAllegro(f))
	r.Register("SE", NewPricerunner("SE", f))
	r.Register("GB", NewPricerunner("GB", f))

	return r
}
