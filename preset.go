package pagekit

// ApplyPreset returns a new value set: target with every key the preset
// defines overwritten by the preset's value. Neither input is modified.
func ApplyPreset(preset Preset, target ValueSet) ValueSet {
	out := target.Clone()
	for k, v := range preset.Values {
		out[k] = cloneValue(v)
	}
	return out
}

// ApplyPresetStyles merges the preset's per-breakpoint styles into store.
func ApplyPresetStyles(preset Preset, store *BreakpointStore) error {
	for _, bp := range Breakpoints {
		for k, v := range preset.Styles[bp] {
			if err := store.Update(bp, k, v); err != nil {
				return err
			}
		}
	}
	return nil
}
