package keymap

import "slices"

// Resolver maps key strings to actions.
type Resolver struct {
	actions map[string]Action
	keys    map[Action][]string // in binding order, for hints
}

// NewResolver indexes bindings. A key bound twice resolves to the last
// binding.
func NewResolver(bindings []Binding) *Resolver {
	r := &Resolver{
		actions: make(map[string]Action),
		keys:    make(map[Action][]string),
	}
	for _, b := range bindings {
		for _, key := range b.Keys {
			r.actions[key] = b.Action
			if !slices.Contains(r.keys[b.Action], key) {
				r.keys[b.Action] = append(r.keys[b.Action], key)
			}
		}
	}
	return r
}

// Resolve returns the action bound to key, or "" when key is unbound.
func (r *Resolver) Resolve(key string) Action {
	return r.actions[key]
}

// KeysFor returns the keys bound to action.
func (r *Resolver) KeysFor(action Action) []string {
	return r.keys[action]
}

// Hint returns the first key that still triggers action, for display in
// status lines. It is empty when every key was rebound elsewhere.
func (r *Resolver) Hint(action Action) string {
	for _, key := range r.keys[action] {
		if r.actions[key] == action {
			return key
		}
	}
	return ""
}
