package views

import "fmt"

// Registry holds the dashboard views in tab order.
type Registry struct {
	views []*View
	index map[string]*View
}

// NewRegistry builds a registry. Duplicate view ids are a programming error.
func NewRegistry(views ...*View) *Registry {
	r := &Registry{index: make(map[string]*View, len(views))}
	for _, v := range views {
		if _, dup := r.index[v.ID]; dup {
			panic("views: duplicate view id " + v.ID)
		}
		r.index[v.ID] = v
		r.views = append(r.views, v)
	}
	return r
}

// Default returns the full dashboard catalogue.
func Default() *Registry {
	return NewRegistry(
		Auckland(),
		SteamMTHW(),
		Janitza(),
		LTHW(),
		Gas(),
		MTHW(),
		CFI(),
		StreamElec(),
		EnergyTotal(),
	)
}

// Views returns the views in tab order.
func (r *Registry) Views() []*View {
	return r.views
}

// First returns the view selected when the page opens.
func (r *Registry) First() *View {
	if len(r.views) == 0 {
		return nil
	}
	return r.views[0]
}

// View looks a view up by id.
func (r *Registry) View(id string) (*View, error) {
	v, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownView, id)
	}
	return v, nil
}

// Endpoints lists every row endpoint across all views.
func (r *Registry) Endpoints() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range r.views {
		for _, p := range v.Endpoints() {
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out
}
