package pagekit

// BreakpointStore holds per-breakpoint style overrides. It performs no
// validation; values stay opaque until a validator consumes them.
type BreakpointStore struct {
	styles BreakpointStyleMap
}

// NewBreakpointStore creates a store seeded with a copy of initial.
func NewBreakpointStore(initial BreakpointStyleMap) *BreakpointStore {
	s := &BreakpointStore{styles: make(BreakpointStyleMap, len(Breakpoints))}
	for bp, styles := range initial.Clone() {
		if bp.Valid() {
			s.styles[bp] = styles
		}
	}
	return s
}

// Update sets key at bp. A nil value removes the key so the breakpoint falls
// through to its neighbours again.
func (s *BreakpointStore) Update(bp Breakpoint, key string, value any) error {
	if !bp.Valid() {
		return NewInvalidBreakpointError(bp)
	}
	if value == nil {
		if styles, ok := s.styles[bp]; ok {
			delete(styles, key)
			if len(styles) == 0 {
				delete(s.styles, bp)
			}
		}
		return nil
	}
	styles, ok := s.styles[bp]
	if !ok {
		styles = StyleMap{}
		s.styles[bp] = styles
	}
	styles[key] = cloneValue(value)
	return nil
}

// Current merges mobile, then tablet, then desktop. Each later breakpoint
// overwrites the keys it defines; undefined keys fall through.
func (s *BreakpointStore) Current() StyleMap {
	out := StyleMap{}
	for _, bp := range Breakpoints {
		for k, v := range s.styles[bp] {
			out[k] = cloneValue(v)
		}
	}
	return out
}

// ResolveFor returns the styles that apply on the bp viewport: desktop is the
// base and every narrower breakpoint down to bp overrides it.
func (s *BreakpointStore) ResolveFor(bp Breakpoint) (StyleMap, error) {
	idx := bp.Index()
	if idx < 0 {
		return nil, NewInvalidBreakpointError(bp)
	}
	out := StyleMap{}
	for i := len(Breakpoints) - 1; i >= idx; i-- {
		for k, v := range s.styles[Breakpoints[i]] {
			out[k] = cloneValue(v)
		}
	}
	return out, nil
}

// At returns a copy of the overrides declared at bp.
func (s *BreakpointStore) At(bp Breakpoint) StyleMap {
	out := StyleMap{}
	for k, v := range s.styles[bp] {
		out[k] = cloneValue(v)
	}
	return out
}

// Inherit copies keys (all of them when none are given) from one breakpoint to
// another, overwriting only those keys at the destination. Keys missing at the
// source are left alone.
func (s *BreakpointStore) Inherit(from, to Breakpoint, keys ...string) error {
	if !from.Valid() {
		return NewInvalidBreakpointError(from)
	}
	if !to.Valid() {
		return NewInvalidBreakpointError(to)
	}
	src := s.styles[from]
	if len(keys) == 0 {
		for k := range src {
			keys = append(keys, k)
		}
	}
	for _, k := range keys {
		v, ok := src[k]
		if !ok {
			continue
		}
		if err := s.Update(to, k, v); err != nil {
			return err
		}
	}
	return nil
}

// ResetAt drops every override at bp.
func (s *BreakpointStore) ResetAt(bp Breakpoint) error {
	if !bp.Valid() {
		return NewInvalidBreakpointError(bp)
	}
	delete(s.styles, bp)
	return nil
}

// ResetAll drops every override.
func (s *BreakpointStore) ResetAll() {
	s.styles = make(BreakpointStyleMap, len(Breakpoints))
}

// Snapshot returns a deep copy of the whole map.
func (s *BreakpointStore) Snapshot() BreakpointStyleMap {
	return s.styles.Clone()
}

// Restore replaces the whole map with a copy of styles.
func (s *BreakpointStore) Restore(styles BreakpointStyleMap) {
	s.styles = make(BreakpointStyleMap, len(Breakpoints))
	for bp, m := range styles.Clone() {
		if bp.Valid() {
			s.styles[bp] = m
		}
	}
}
