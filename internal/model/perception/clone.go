package perception

import "github.com/mohae/deepcopy"

// CloneValues deep-copies a free-form value map, including nested maps and slices.
// A nil map stays nil.
func CloneValues(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return deepcopy.Copy(m).(map[string]any)
}

// CloneValue deep-copies a single free-form value.
func CloneValue(v any) any {
	return deepcopy.Copy(v)
}
