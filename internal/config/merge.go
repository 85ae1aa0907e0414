package config

// deepMerge combines the defaults block with a task-local mapping. Fields
// present in the override win; nested string-keyed maps are merged key-by-key
// rather than replaced wholesale. Neither input is mutated.
func deepMerge(defaults, override map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(override))
	for k, v := range defaults {
		out[k] = cloneValue(v)
	}
	for k, v := range override {
		if base, ok := out[k].(map[string]any); ok {
			if nested, ok := v.(map[string]any); ok {
				out[k] = deepMerge(base, nested)
				continue
			}
		}
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies maps and slices so that a merged task never aliases the
// defaults block; YAML anchors make shared backing structures easy to hit.
func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, item := range typed {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
