// Package supplier detects which known supplier issued an invoice by scoring
// extracted text against registered supplier signatures.
package supplier

import (
	"fmt"
)

// Signal is one weighted text fragment identifying a supplier, such as the
// company name, a web domain, or an address fragment from the letterhead.
type Signal struct {
	Pattern string
	Weight  float64
}

// Definition describes one known supplier.
type Definition struct {
	ID      string
	Name    string
	Signals []Signal
}

// Registry holds supplier definitions in registration order. Registration
// order is significant: when two suppliers score identically, the one
// registered first wins. The registry is built at construction time and not
// mutated afterwards; tests construct their own registries with fake
// suppliers.
type Registry struct {
	defs []Definition
	ids  map[string]struct{}
}

// NewRegistry creates a registry from the given definitions.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{ids: make(map[string]struct{})}
	for _, def := range defs {
		if err := r.register(def); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(def Definition) error {
	if def.ID == "" {
		return fmt.Errorf("supplier definition missing ID")
	}
	if _, exists := r.ids[def.ID]; exists {
		return fmt.Errorf("duplicate supplier ID %q", def.ID)
	}
	if len(def.Signals) == 0 {
		return fmt.Errorf("supplier %q has no signals", def.ID)
	}
	for _, sig := range def.Signals {
		if sig.Pattern == "" || sig.Weight <= 0 {
			return fmt.Errorf("supplier %q has an invalid signal %+v", def.ID, sig)
		}
	}
	r.ids[def.ID] = struct{}{}
	r.defs = append(r.defs, def)
	return nil
}

// Definitions returns all registered definitions in registration order.
func (r *Registry) Definitions() []Definition {
	return r.defs
}

// IDs returns all registered supplier IDs in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, def := range r.defs {
		ids[i] = def.ID
	}
	return ids
}

// Get returns the definition for the given ID.
func (r *Registry) Get(id string) (Definition, bool) {
	if _, ok := r.ids[id]; !ok {
		return Definition{}, false
	}
	for _, def := range r.defs {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Supported supplier IDs.
const (
	IDDoenges = "doenges"
	IDSeiz    = "seiz"
)

// DefaultRegistry returns the registry of production suppliers. Signal
// weights favor the company name; domain and address fragments back it up
// when the name is mangled by text extraction.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Definition{
			ID:   IDDoenges,
			Name: "Dönges GmbH & Co. KG",
			Signals: []Signal{
				{Pattern: "dönges", Weight: 0.6},
				{Pattern: "doenges", Weight: 0.6},
				{Pattern: "doenges.de", Weight: 0.3},
				{Pattern: "jägerwald", Weight: 0.2},
				{Pattern: "remscheid", Weight: 0.2},
			},
		},
		Definition{
			ID:   IDSeiz,
			Name: "Friedrich Seiz GmbH",
			Signals: []Signal{
				{Pattern: "seiz", Weight: 0.6},
				{Pattern: "seiz.de", Weight: 0.3},
				{Pattern: "metzingen", Weight: 0.2},
				{Pattern: "technical gloves", Weight: 0.2},
			},
		},
	)
	if err != nil {
		// Static definitions above; a failure here is a programming error.
		panic(err)
	}
	return r
}
